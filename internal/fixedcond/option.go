package fixedcond

import (
	"github.com/tordrt/relschema/internal/schema"
)

// CheckOptions validates the fixed-condition option flags of fk. Violations
// are structural errors naming the foreign key and its table.
func CheckOptions(fk *schema.ForeignKey) error {
	table := fk.Table().Name().String()
	fail := func(reference, message string) error {
		return schema.NewConfigError(fk.Name(), table, reference, message)
	}

	if !fk.HasFixedCondition() {
		switch {
		case fk.FixedInline:
			return fail("fixedInline", "fixedInline requires a fixed condition")
		case fk.FixedReferrer:
			return fail("fixedReferrer", "fixedReferrer requires a fixed condition")
		case fk.FixedOnlyJoin:
			return fail("fixedOnlyJoin", "fixedOnlyJoin requires a fixed condition")
		}
	}
	if fk.FixedInline && fk.FixedReferrer {
		return fail("fixedInline, fixedReferrer", "fixedInline cannot be combined with fixedReferrer")
	}
	if fk.FixedInline {
		local, err := ReferencesAlias(fk.FixedCondition, LocalAlias)
		if err != nil {
			cfgErr := schema.NewConfigError(fk.Name(), table, "fixedCondition", "malformed fixed condition")
			cfgErr.Cause = err
			return cfgErr
		}
		if local {
			return fail("$$"+LocalAlias+"$$", "an inline fixed condition cannot reference the local table")
		}
	}

	n := len(fk.LocalColumnNames())
	if fk.FixedOnlyJoin && n > 0 {
		return fail("fixedOnlyJoin", "a fixed-only join must not declare key columns")
	}
	if !fk.FixedOnlyJoin && n == 0 {
		return fail("local columns", "a foreign key needs key columns unless it is a fixed-only join")
	}
	return nil
}
