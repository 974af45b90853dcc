package schema

import "strings"

// Table is a table (or view) of the database.
type Table struct {
	db      *Database
	name    QualifiedName
	Type    string
	Comment string

	columns     []*Column
	columnIndex map[string]*Column
	primaryKey  []*Column
	uniques     []*Unique
	indexes     []Index
	foreignKeys []*ForeignKey
	referrers   []*ForeignKey
}

// Column is a table column.
type Column struct {
	table   *Table
	Name    string
	DBType  string
	Size    string
	NotNull bool
	Default *string
	Comment string

	logical    LogicalType
	primaryKey bool
	unique     bool
	multipleFK bool
}

// Name returns the qualified table name.
func (t *Table) Name() QualifiedName {
	return t.name
}

// Database returns the owning database.
func (t *Table) Database() *Database {
	return t.db
}

// AddColumn appends a column. Column names are unique per table
// (case-insensitive).
func (t *Table) AddColumn(spec ColumnSpec) (*Column, error) {
	if spec.Name == "" {
		return nil, NewConfigError("", t.name.String(), "", "column name is required")
	}
	key := strings.ToLower(spec.Name)
	if _, ok := t.columnIndex[key]; ok {
		return nil, NewConfigError("", t.name.String(), "column "+spec.Name, "duplicate column")
	}
	c := &Column{
		table:      t,
		Name:       spec.Name,
		DBType:     spec.DBType,
		Size:       spec.Size,
		NotNull:    spec.NotNull || spec.PrimaryKey,
		Default:    spec.Default,
		Comment:    spec.Comment,
		logical:    ClassifyType(spec.DBType),
		primaryKey: spec.PrimaryKey,
		multipleFK: spec.MultipleFK,
	}
	t.columns = append(t.columns, c)
	t.columnIndex[key] = c
	if spec.PrimaryKey {
		t.primaryKey = append(t.primaryKey, c)
	}
	if spec.Unique {
		if _, err := t.AddUnique("", spec.Name); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetPrimaryKey replaces the primary key with the named columns, in the
// given order.
func (t *Table) SetPrimaryKey(names ...string) error {
	cols, err := t.lookupColumns(names, "primary key")
	if err != nil {
		return err
	}
	for _, c := range t.primaryKey {
		c.primaryKey = false
	}
	for _, c := range cols {
		c.primaryKey = true
		c.NotNull = true
	}
	t.primaryKey = cols
	return nil
}

// AddUnique declares a unique constraint over existing columns. An empty
// name is synthesized during Finalize.
func (t *Table) AddUnique(name string, columns ...string) (*Unique, error) {
	if len(columns) == 0 {
		return nil, NewConfigError("", t.name.String(), "unique "+name, "unique constraint without columns")
	}
	cols, err := t.lookupColumns(columns, "unique constraint "+name)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		c.unique = true
	}
	u := &Unique{name: name, table: t, columns: cols}
	t.uniques = append(t.uniques, u)
	return u, nil
}

// AddIndex records a non-constraint index.
func (t *Table) AddIndex(idx Index) {
	t.indexes = append(t.indexes, idx)
}

// AddForeignKey declares a foreign key with this table as the local side.
// The foreign table is only referenced by name here; it is resolved during
// Finalize.
func (t *Table) AddForeignKey(spec ForeignKeySpec) (*ForeignKey, error) {
	if spec.ForeignTable == "" {
		return nil, NewConfigError(spec.Name, t.name.String(), "", "foreign table name is required")
	}
	if len(spec.LocalColumns) != len(spec.ForeignColumns) {
		return nil, NewConfigError(spec.Name, t.name.String(), "",
			"local and foreign column lists differ in length")
	}
	if spec.FixedOnlyJoin && len(spec.LocalColumns) > 0 {
		return nil, NewConfigError(spec.Name, t.name.String(), "local columns "+strings.Join(spec.LocalColumns, ","),
			"a fixed-only join must not declare key columns")
	}
	if !spec.FixedOnlyJoin && len(spec.LocalColumns) == 0 {
		return nil, NewConfigError(spec.Name, t.name.String(), "local columns",
			"a foreign key needs key columns unless it is a fixed-only join")
	}

	fk := &ForeignKey{
		name:             spec.Name,
		table:            t,
		foreignName:      QualifiedName{Schema: spec.ForeignSchema, Name: spec.ForeignTable},
		localNames:       append([]string(nil), spec.LocalColumns...),
		foreignNames:     append([]string(nil), spec.ForeignColumns...),
		localToForeign:   make(map[string]string, len(spec.LocalColumns)),
		foreignToLocal:   make(map[string]string, len(spec.LocalColumns)),
		FixedCondition:   strings.TrimSpace(spec.FixedCondition),
		FixedSuffix:      spec.FixedSuffix,
		Prefix:           spec.Prefix,
		Comment:          spec.Comment,
		Additional:       spec.Additional,
		SuppressJoin:     spec.SuppressJoin,
		SuppressSubQuery: spec.SuppressSubQuery,
		FixedInline:      spec.FixedInline,
		FixedReferrer:    spec.FixedReferrer,
		FixedOnlyJoin:    spec.FixedOnlyJoin,
		ImplicitReverse:  spec.ImplicitReverse,
		Deprecated:       spec.Deprecated,
	}
	for i, local := range spec.LocalColumns {
		fk.localToForeign[local] = spec.ForeignColumns[i]
		fk.foreignToLocal[spec.ForeignColumns[i]] = local
	}
	t.foreignKeys = append(t.foreignKeys, fk)
	return fk, nil
}

func (t *Table) lookupColumns(names []string, owner string) ([]*Column, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, NewConfigError("", t.name.String(), "column "+n, owner+" references an unknown column")
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Column looks a column up by name, case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columnIndex[strings.ToLower(name)]
	return c, ok
}

// PrimaryKey returns the primary key columns.
func (t *Table) PrimaryKey() []*Column {
	return t.primaryKey
}

// HasPrimaryKey reports whether the table declares a primary key.
func (t *Table) HasPrimaryKey() bool {
	return len(t.primaryKey) > 0
}

// Uniques returns the unique constraints.
func (t *Table) Uniques() []*Unique {
	return t.uniques
}

// Indexes returns the non-constraint indexes.
func (t *Table) Indexes() []Index {
	return t.indexes
}

// ForeignKeys returns the foreign keys declared on this table.
func (t *Table) ForeignKeys() []*ForeignKey {
	return t.foreignKeys
}

// Referrers returns the foreign keys of other tables (or this one) that
// reference this table. Populated by Database.Finalize.
func (t *Table) Referrers() []*ForeignKey {
	return t.referrers
}

// IsPrimaryKeySet reports whether cols is exactly the primary key column
// set, in any order.
func (t *Table) IsPrimaryKeySet(cols []*Column) bool {
	return sameColumnSet(cols, t.primaryKey)
}

// IsUniqueSet reports whether cols is exactly the column set of one of the
// unique constraints, in any order.
func (t *Table) IsUniqueSet(cols []*Column) bool {
	for _, u := range t.uniques {
		if sameColumnSet(cols, u.columns) {
			return true
		}
	}
	return false
}

// markMultipleFK flags the columns that tell apart several foreign keys
// pointing at the same foreign table. One key of each group stays plain: the
// one whose local column names equal its foreign column names, or the first
// declared when no key or several keys qualify. Every local column of the
// other keys that the plain key does not use is flagged.
func (t *Table) markMultipleFK() {
	groups := make(map[*Table][]*ForeignKey)
	var order []*Table
	for _, fk := range t.foreignKeys {
		if _, ok := groups[fk.foreignTable]; !ok {
			order = append(order, fk.foreignTable)
		}
		groups[fk.foreignTable] = append(groups[fk.foreignTable], fk)
	}

	for _, foreign := range order {
		fks := groups[foreign]
		if len(fks) < 2 {
			continue
		}
		plain := plainForeignKey(fks)
		for _, fk := range fks {
			if fk == plain {
				continue
			}
			for _, c := range fk.localColumns {
				if !containsColumn(plain.localColumns, c) {
					c.multipleFK = true
				}
			}
		}
	}
}

// plainForeignKey picks the key of fks that keeps the undisambiguated
// relation name.
func plainForeignKey(fks []*ForeignKey) *ForeignKey {
	var natural []*ForeignKey
	for _, fk := range fks {
		if fk.isNaturalKey() {
			natural = append(natural, fk)
		}
	}
	if len(natural) == 1 {
		return natural[0]
	}
	return fks[0]
}

// isNaturalKey reports whether every local column has the name of the
// foreign column it references.
func (fk *ForeignKey) isNaturalKey() bool {
	if len(fk.localColumns) == 0 || len(fk.localColumns) != len(fk.foreignColumns) {
		return false
	}
	for i, c := range fk.localColumns {
		if !strings.EqualFold(c.Name, fk.foreignColumns[i].Name) {
			return false
		}
	}
	return true
}

func sameColumnSet(a, b []*Column) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	for _, c := range a {
		if !containsColumn(b, c) {
			return false
		}
	}
	for _, c := range b {
		if !containsColumn(a, c) {
			return false
		}
	}
	return true
}

func containsColumn(cols []*Column, c *Column) bool {
	for _, x := range cols {
		if x == c {
			return true
		}
	}
	return false
}

// Table returns the owning table.
func (c *Column) Table() *Table {
	return c.table
}

// LogicalType returns the classification of the declared type.
func (c *Column) LogicalType() LogicalType {
	return c.logical
}

// NativeType returns the runtime type name of the column values.
func (c *Column) NativeType() string {
	return NativeType(c.DBType)
}

// IsPrimaryKey reports primary key membership.
func (c *Column) IsPrimaryKey() bool {
	return c.primaryKey
}

// IsUnique reports membership in at least one unique constraint.
func (c *Column) IsUnique() bool {
	return c.unique
}

// IsMultipleFK reports whether the column disambiguates several relations of
// its table.
func (c *Column) IsMultipleFK() bool {
	return c.multipleFK
}

// IsStringLike reports a string logical type.
func (c *Column) IsStringLike() bool {
	return c.logical == StringType
}

// IsNumericLike reports a numeric logical type.
func (c *Column) IsNumericLike() bool {
	return c.logical == NumericType
}
