// Package policy supplies the environment-specific naming and relation
// settings the resolver consults. A Policy is loaded once and only read
// afterwards.
package policy

import (
	"slices"
	"strings"

	"github.com/tordrt/relschema/internal/naming"
)

// AllRelations in a suppression list suppresses every referrer relation of
// the table except the ones listed with a leading "!".
const AllRelations = "$$ALL$$"

// Policy is the relschema configuration from relschema.yaml.
type Policy struct {
	Naming   NamingConfig   `mapstructure:"naming"`
	Relation RelationConfig `mapstructure:"relation"`
}

// NamingConfig controls identifier generation.
type NamingConfig struct {
	// Method is underscore, verbatim or nochange.
	Method         string `mapstructure:"method"`
	ConvertToLower bool   `mapstructure:"convert_to_lower"`
	// PropertyConvention is beans or lower.
	PropertyConvention string `mapstructure:"property_convention"`
	// OptionalEntity wraps the type of foreign properties in reports,
	// e.g. OptionalEntity<Member>. Empty shows the bare entity.
	OptionalEntity string `mapstructure:"optional_entity"`
}

// RelationConfig holds per-relation overrides.
type RelationConfig struct {
	SuppressReferrer         []ReferrerSuppression `mapstructure:"suppress_referrer"`
	MultipleFKAliases        []MultipleFKAlias     `mapstructure:"multiple_fk_aliases"`
	OneToOneReferrerSubQuery bool                  `mapstructure:"one_to_one_referrer_sub_query"`
	SubQueryExcludedTables   []string              `mapstructure:"sub_query_excluded_tables"`
	DerivedReferrerColumns   []ColumnOverride      `mapstructure:"derived_referrer_columns"`
}

// ReferrerSuppression lists referrer relation names of a foreign table that
// must not be generated.
type ReferrerSuppression struct {
	Table     string   `mapstructure:"table"`
	Relations []string `mapstructure:"relations"`
}

// MultipleFKAlias names the disambiguation word for the multiple-FK column
// group of a table. Columns are matched case-sensitively in declaration
// order.
type MultipleFKAlias struct {
	Table   string   `mapstructure:"table"`
	Columns []string `mapstructure:"columns"`
	Alias   string   `mapstructure:"alias"`
}

// ColumnOverride forces derived-referrer eligibility of a foreign column.
type ColumnOverride struct {
	Table  string `mapstructure:"table"`
	Column string `mapstructure:"column"`
	Allow  bool   `mapstructure:"allow"`
}

// Default returns the policy used when no configuration is present.
func Default() *Policy {
	return &Policy{
		Naming: NamingConfig{
			Method:             string(naming.Underscore),
			ConvertToLower:     true,
			PropertyConvention: string(naming.Beans),
			OptionalEntity:     "OptionalEntity",
		},
	}
}

// Method returns the identifier generation method.
func (p *Policy) Method() naming.Method {
	return naming.ParseMethod(p.Naming.Method)
}

// NamingOptions returns the identifier generation options.
func (p *Policy) NamingOptions() naming.Options {
	return naming.Options{ConvertToLower: p.Naming.ConvertToLower}
}

// Generator returns the identifier generator selected by the policy.
func (p *Policy) Generator() naming.Generator {
	return naming.ForMethod(p.Method(), p.NamingOptions())
}

// Convention returns the property accessor convention.
func (p *Policy) Convention() naming.Convention {
	if strings.EqualFold(p.Naming.PropertyConvention, string(naming.Lower)) {
		return naming.Lower
	}
	return naming.Beans
}

// IsReferrerSuppressed reports whether the referrer relation named relation
// of foreignTable is suppressed. Table names match case-insensitively.
func (p *Policy) IsReferrerSuppressed(foreignTable, relation string) bool {
	for _, s := range p.Relation.SuppressReferrer {
		if !strings.EqualFold(s.Table, foreignTable) {
			continue
		}
		all := false
		for _, name := range s.Relations {
			switch {
			case name == AllRelations:
				all = true
			case strings.HasPrefix(name, "!"):
				if name[1:] == relation {
					return false
				}
			case name == relation:
				return true
			}
		}
		if all {
			return true
		}
	}
	return false
}

// MultipleFKAliasKey builds the lookup key of a multiple-FK column group.
func MultipleFKAliasKey(table string, columns []string) string {
	return table + ":" + strings.Join(columns, ",")
}

// MultipleFKAlias returns the alias configured for the column group.
func (p *Policy) MultipleFKAlias(table string, columns []string) (string, bool) {
	key := MultipleFKAliasKey(table, columns)
	for _, a := range p.Relation.MultipleFKAliases {
		if a.Alias != "" && MultipleFKAliasKey(a.Table, a.Columns) == key {
			return a.Alias, true
		}
	}
	return "", false
}

// IsSubQueryExcluded reports whether sub-query capabilities are disabled for
// the table.
func (p *Policy) IsSubQueryExcluded(table string) bool {
	return slices.ContainsFunc(p.Relation.SubQueryExcludedTables, func(t string) bool {
		return strings.EqualFold(t, table)
	})
}

// DerivedReferrerOverride returns the forced derived-referrer eligibility of
// a column, if any.
func (p *Policy) DerivedReferrerOverride(table, column string) (allow, ok bool) {
	for _, o := range p.Relation.DerivedReferrerColumns {
		if strings.EqualFold(o.Table, table) && strings.EqualFold(o.Column, column) {
			return o.Allow, true
		}
	}
	return false, false
}
