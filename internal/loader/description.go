// Package loader turns a schema description into a finalized schema model.
//
// A Description is the attribute-set form of a schema. It is read from YAML
// files or produced by the catalog extractors in internal/db, and Build
// replays it through the schema builders.
package loader

import "strings"

// Description is one database worth of tables and sequences.
type Description struct {
	Database  DatabaseDesc   `yaml:"database"`
	Tables    []TableDesc    `yaml:"tables"`
	Sequences []SequenceDesc `yaml:"sequences,omitempty"`
}

// DatabaseDesc names the database and its dialect.
type DatabaseDesc struct {
	Name    string `yaml:"name"`
	Dialect string `yaml:"dialect"`
	Schema  string `yaml:"schema,omitempty"`
}

type TableDesc struct {
	Name        string           `yaml:"name"`
	Schema      string           `yaml:"schema,omitempty"`
	Type        string           `yaml:"type,omitempty"`
	Comment     string           `yaml:"comment,omitempty"`
	Columns     []ColumnDesc     `yaml:"columns"`
	PrimaryKey  []string         `yaml:"primary_key,omitempty"`
	Uniques     []UniqueDesc     `yaml:"uniques,omitempty"`
	Indexes     []IndexDesc      `yaml:"indexes,omitempty"`
	ForeignKeys []ForeignKeyDesc `yaml:"foreign_keys,omitempty"`
}

type ColumnDesc struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Size       string  `yaml:"size,omitempty"`
	NotNull    bool    `yaml:"not_null,omitempty"`
	PrimaryKey bool    `yaml:"primary_key,omitempty"`
	Unique     bool    `yaml:"unique,omitempty"`
	MultipleFK bool    `yaml:"multiple_fk,omitempty"`
	Default    *string `yaml:"default,omitempty"`
	Comment    string  `yaml:"comment,omitempty"`
}

type UniqueDesc struct {
	Name    string   `yaml:"name,omitempty"`
	Columns []string `yaml:"columns"`
}

type IndexDesc struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// ForeignKeyDesc carries the key columns plus the code-generation options
// attached to a relation.
type ForeignKeyDesc struct {
	Name           string   `yaml:"name,omitempty"`
	ForeignTable   string   `yaml:"foreign_table"`
	ForeignSchema  string   `yaml:"foreign_schema,omitempty"`
	LocalColumns   []string `yaml:"local_columns,omitempty"`
	ForeignColumns []string `yaml:"foreign_columns,omitempty"`

	FixedCondition string `yaml:"fixed_condition,omitempty"`
	FixedSuffix    string `yaml:"fixed_suffix,omitempty"`
	Prefix         string `yaml:"prefix,omitempty"`
	Comment        string `yaml:"comment,omitempty"`

	Additional       bool `yaml:"additional,omitempty"`
	SuppressJoin     bool `yaml:"suppress_join,omitempty"`
	SuppressSubQuery bool `yaml:"suppress_sub_query,omitempty"`
	FixedInline      bool `yaml:"fixed_inline,omitempty"`
	FixedReferrer    bool `yaml:"fixed_referrer,omitempty"`
	FixedOnlyJoin    bool `yaml:"fixed_only_join,omitempty"`
	ImplicitReverse  bool `yaml:"implicit_reverse,omitempty"`
	Deprecated       bool `yaml:"deprecated,omitempty"`
}

// SequenceDesc keeps bounds as decimal strings; they may exceed int64.
type SequenceDesc struct {
	Name      string `yaml:"name"`
	Schema    string `yaml:"schema,omitempty"`
	Minimum   string `yaml:"minimum,omitempty"`
	Maximum   string `yaml:"maximum,omitempty"`
	Start     string `yaml:"start,omitempty"`
	Increment *int64 `yaml:"increment,omitempty"`
}

// Table returns the table description named name, ignoring case.
func (d *Description) Table(name string) (*TableDesc, bool) {
	for i := range d.Tables {
		if strings.EqualFold(d.Tables[i].Name, name) {
			return &d.Tables[i], true
		}
	}
	return nil, false
}
