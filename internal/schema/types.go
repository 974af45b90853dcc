// Package schema holds the in-memory model of a relational schema: one
// database with its tables, columns, keys and sequences.
//
// Entities are built during a single load pass through the Add* builders.
// Database.Finalize then resolves name references and derives back-references
// once; after that the model is read-only.
package schema

import (
	"strings"

	"github.com/shopspring/decimal"
)

// QualifiedName identifies a table or sequence: an optional schema plus the
// pure name.
type QualifiedName struct {
	Schema string
	Name   string
}

// String returns "schema.name", or just the name without a schema.
func (q QualifiedName) String() string {
	if q.Schema == "" {
		return q.Name
	}
	return q.Schema + "." + q.Name
}

// Equal reports whether both names denote the same object. Comparison is
// case-insensitive.
func (q QualifiedName) Equal(o QualifiedName) bool {
	return q.key() == o.key()
}

func (q QualifiedName) key() string {
	return strings.ToLower(q.Schema) + "." + strings.ToLower(q.Name)
}

// Schema owns at most one Database.
type Schema struct {
	db *Database
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{}
}

// AddDatabase registers db. A schema holds at most one database.
func (s *Schema) AddDatabase(db *Database) error {
	if s.db != nil {
		return NewConfigError("", "", db.Name, "a schema may hold only one database, already holding "+s.db.Name)
	}
	s.db = db
	return nil
}

// Database returns the registered database or nil.
func (s *Schema) Database() *Database {
	return s.db
}

// Dialect returns the declared dialect of the database, or "" without one.
func (s *Schema) Dialect() string {
	if s.db == nil {
		return ""
	}
	return s.db.Dialect
}

// TableSpec is the attribute set of a table.
type TableSpec struct {
	Name    string
	Schema  string
	Type    string // TABLE or VIEW
	Comment string
}

// ColumnSpec is the attribute set of a column.
type ColumnSpec struct {
	Name       string
	DBType     string
	Size       string
	NotNull    bool
	PrimaryKey bool
	Unique     bool
	// MultipleFK marks the column as a disambiguator between several
	// relations of its table, in addition to the derived marking.
	MultipleFK bool
	Default    *string
	Comment    string
}

// ForeignKeySpec is the attribute set of a foreign key.
type ForeignKeySpec struct {
	Name           string
	ForeignTable   string
	ForeignSchema  string
	LocalColumns   []string
	ForeignColumns []string

	// FixedCondition is a custom join predicate.
	FixedCondition string
	// FixedSuffix replaces the derived disambiguation segment of the
	// relation property names.
	FixedSuffix string
	// Prefix is prepended to the relation property names.
	Prefix  string
	Comment string

	Additional       bool
	SuppressJoin     bool
	SuppressSubQuery bool
	FixedInline      bool
	FixedReferrer    bool
	FixedOnlyJoin    bool
	ImplicitReverse  bool
	Deprecated       bool
}

// SequenceSpec is the attribute set of a sequence.
type SequenceSpec struct {
	Name      string
	Schema    string
	Minimum   *decimal.Decimal
	Maximum   *decimal.Decimal
	Start     *decimal.Decimal
	Increment *int64
}

// Sequence is a database sequence, independent of tables.
type Sequence struct {
	name      QualifiedName
	Minimum   *decimal.Decimal
	Maximum   *decimal.Decimal
	Start     *decimal.Decimal
	Increment *int64
}

// Name returns the qualified sequence name.
func (s *Sequence) Name() QualifiedName {
	return s.name
}

// Index is a non-constraint index, kept for reporting.
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// Unique is a unique constraint: columns of one table that are jointly unique.
type Unique struct {
	name      string
	generated bool
	table     *Table
	columns   []*Column
}

// Name returns the declared or generated constraint name.
func (u *Unique) Name() string {
	return u.name
}

// Generated reports whether the name was synthesized.
func (u *Unique) Generated() bool {
	return u.generated
}

// Table returns the owning table.
func (u *Unique) Table() *Table {
	return u.table
}

// Columns returns the constraint columns in declaration order.
func (u *Unique) Columns() []*Column {
	return u.columns
}
