package fixedcond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/relschema/internal/schema"
)

func TestCheckOptions(t *testing.T) {
	tests := []struct {
		name      string
		spec      schema.ForeignKeySpec
		wantErr   bool
		reference string
	}{
		{
			name: "plain key",
			spec: schema.ForeignKeySpec{Name: "FK_PURCHASE_MEMBER"},
		},
		{
			name: "fixed condition with referrer",
			spec: schema.ForeignKeySpec{
				Name:           "FK_PURCHASE_MEMBER_VALID",
				FixedCondition: "$$foreignAlias$$.MEMBER_STATUS_CODE = 'FML'",
				FixedReferrer:  true,
			},
		},
		{
			name: "inline on foreign columns only",
			spec: schema.ForeignKeySpec{
				Name:           "FK_PURCHASE_MEMBER_INLINE",
				FixedCondition: "$$foreignAlias$$.MEMBER_STATUS_CODE = 'FML'",
				FixedInline:    true,
			},
		},
		{
			name:      "inline without condition",
			spec:      schema.ForeignKeySpec{Name: "FK_X", FixedInline: true},
			wantErr:   true,
			reference: "fixedInline",
		},
		{
			name:      "referrer without condition",
			spec:      schema.ForeignKeySpec{Name: "FK_X", FixedReferrer: true},
			wantErr:   true,
			reference: "fixedReferrer",
		},
		{
			name: "inline with referrer",
			spec: schema.ForeignKeySpec{
				Name:           "FK_X",
				FixedCondition: "$$foreignAlias$$.MEMBER_STATUS_CODE = 'FML'",
				FixedInline:    true,
				FixedReferrer:  true,
			},
			wantErr:   true,
			reference: "fixedInline, fixedReferrer",
		},
		{
			name: "inline referencing local alias",
			spec: schema.ForeignKeySpec{
				Name:           "FK_X",
				FixedCondition: "$$foreignAlias$$.REGISTER_DATETIME <= $$localAlias$$.PURCHASE_DATETIME",
				FixedInline:    true,
			},
			wantErr:   true,
			reference: "$$localAlias$$",
		},
		{
			name: "inline with broken condition",
			spec: schema.ForeignKeySpec{
				Name:           "FK_X",
				FixedCondition: "$$foreignAlias$$.MEMBER_STATUS_CODE = 'FML",
				FixedInline:    true,
			},
			wantErr:   true,
			reference: "fixedCondition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purchase, _ := memberTables(t)
			spec := tt.spec
			spec.ForeignTable = "MEMBER"
			spec.LocalColumns = []string{"MEMBER_ID"}
			spec.ForeignColumns = []string{"MEMBER_ID"}
			fk, err := purchase.AddForeignKey(spec)
			require.NoError(t, err)

			err = CheckOptions(fk)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, schema.ErrStructuralInconsistency)

			var cfgErr *schema.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "FK_X", cfgErr.ForeignKey)
			assert.Equal(t, "PURCHASE", cfgErr.Table)
			assert.Equal(t, tt.reference, cfgErr.Reference)
		})
	}
}

func TestCheckOptionsFixedOnlyJoin(t *testing.T) {
	purchase, _ := memberTables(t)

	fk, err := purchase.AddForeignKey(schema.ForeignKeySpec{
		Name:           "FK_PURCHASE_MEMBER_FORMAL",
		ForeignTable:   "MEMBER",
		FixedCondition: "$$foreignAlias$$.MEMBER_STATUS_CODE = 'FML'",
		FixedOnlyJoin:  true,
	})
	require.NoError(t, err)
	assert.NoError(t, CheckOptions(fk))
}
