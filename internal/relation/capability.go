package relation

import (
	"github.com/tordrt/relschema/internal/policy"
	"github.com/tordrt/relschema/internal/schema"
)

// isOneToOne reports whether the local columns are the full primary key or a
// unique constraint of the local table.
func isOneToOne(fk *schema.ForeignKey) bool {
	cols := fk.LocalColumns()
	if len(cols) == 0 {
		return false
	}
	t := fk.Table()
	return t.IsPrimaryKeySet(cols) || t.IsUniqueSet(cols)
}

// canBeReferrer reports whether the foreign table may hold a back-reference
// named referrerName.
func canBeReferrer(fk *schema.ForeignKey, referrerName string, p *policy.Policy) bool {
	if fk.FixedOnlyJoin {
		return false
	}
	if p.IsReferrerSuppressed(fk.ForeignTable().Name().Name, referrerName) {
		return false
	}
	if fk.HasFixedCondition() && !fk.FixedReferrer {
		return false
	}
	for _, c := range fk.ForeignColumns() {
		if !c.IsPrimaryKey() && !c.IsUnique() {
			return false
		}
	}
	return len(fk.ForeignColumns()) > 0
}

type capabilities struct {
	foreignInScope  bool
	referrerInScope bool
	existsReferrer  bool
	derivedReferrer bool
}

// subQueryCapabilities computes the sub-query flags. Unsupported shapes turn
// a flag off; they are never an error.
func subQueryCapabilities(fk *schema.ForeignKey, oneToOne, referrer bool, p *policy.Policy) capabilities {
	var c capabilities
	if !subQueryAllowed(fk, p) {
		return c
	}
	single := !fk.IsCompound()

	c.foreignInScope = single

	if !referrer || (oneToOne && !p.Relation.OneToOneReferrerSubQuery) {
		return c
	}
	c.existsReferrer = true
	c.referrerInScope = single
	c.derivedReferrer = derivableColumns(fk, p)
	return c
}

func subQueryAllowed(fk *schema.ForeignKey, p *policy.Policy) bool {
	switch {
	case fk.SuppressSubQuery, fk.FixedOnlyJoin:
		return false
	case fk.IsCompound() && fk.ImplicitReverse:
		return false
	case fk.HasFixedCondition() && !fk.FixedInline:
		return false
	case p.IsSubQueryExcluded(fk.Table().Name().Name), p.IsSubQueryExcluded(fk.ForeignTable().Name().Name):
		return false
	}
	return true
}

// derivableColumns reports whether every foreign column can correlate a
// derived column: string-like or numeric-like unless the policy overrides it.
func derivableColumns(fk *schema.ForeignKey, p *policy.Policy) bool {
	table := fk.ForeignTable().Name().Name
	for _, c := range fk.ForeignColumns() {
		if allow, ok := p.DerivedReferrerOverride(table, c.Name); ok {
			if !allow {
				return false
			}
			continue
		}
		if !c.IsStringLike() && !c.IsNumericLike() {
			return false
		}
	}
	return true
}

// isImplicitConversion reports a single-column key whose sides share a
// logical type family but differ in declared storage type.
func isImplicitConversion(fk *schema.ForeignKey) bool {
	if len(fk.LocalColumns()) != 1 {
		return false
	}
	l, f := fk.LocalColumns()[0], fk.ForeignColumns()[0]
	sameFamily := (l.IsStringLike() && f.IsStringLike()) || (l.IsNumericLike() && f.IsNumericLike())
	return sameFamily && schema.BaseType(l.DBType) != schema.BaseType(f.DBType)
}
