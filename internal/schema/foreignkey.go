package schema

// ForeignKey is a foreign key constraint declared on its local table. The
// foreign table is held by qualified name and resolved during
// Database.Finalize, since it may be declared later or live in another
// schema.
type ForeignKey struct {
	name          string
	generatedName bool
	table         *Table
	foreignName   QualifiedName

	localNames     []string
	foreignNames   []string
	localToForeign map[string]string
	foreignToLocal map[string]string

	FixedCondition string
	FixedSuffix    string
	Prefix         string
	Comment        string

	Additional       bool
	SuppressJoin     bool
	SuppressSubQuery bool
	FixedInline      bool
	FixedReferrer    bool
	FixedOnlyJoin    bool
	ImplicitReverse  bool
	Deprecated       bool

	// set by Finalize
	foreignTable   *Table
	localColumns   []*Column
	foreignColumns []*Column
}

// Name returns the declared or synthesized constraint name.
func (fk *ForeignKey) Name() string {
	return fk.name
}

// GeneratedName reports whether the name was synthesized.
func (fk *ForeignKey) GeneratedName() bool {
	return fk.generatedName
}

// Table returns the local table.
func (fk *ForeignKey) Table() *Table {
	return fk.table
}

// ForeignTableName returns the declared foreign table name. An empty schema
// means the schema of the local table.
func (fk *ForeignKey) ForeignTableName() QualifiedName {
	return fk.foreignName
}

// ForeignTable returns the resolved foreign table, or nil before Finalize.
func (fk *ForeignKey) ForeignTable() *Table {
	return fk.foreignTable
}

// LocalColumnNames returns the local column names, aligned with
// ForeignColumnNames.
func (fk *ForeignKey) LocalColumnNames() []string {
	return fk.localNames
}

// ForeignColumnNames returns the foreign column names, aligned with
// LocalColumnNames.
func (fk *ForeignKey) ForeignColumnNames() []string {
	return fk.foreignNames
}

// LocalColumns returns the resolved local columns (after Finalize).
func (fk *ForeignKey) LocalColumns() []*Column {
	return fk.localColumns
}

// ForeignColumns returns the resolved foreign columns (after Finalize).
func (fk *ForeignKey) ForeignColumns() []*Column {
	return fk.foreignColumns
}

// ForeignColumnFor returns the foreign column name paired with a local one.
func (fk *ForeignKey) ForeignColumnFor(local string) (string, bool) {
	n, ok := fk.localToForeign[local]
	return n, ok
}

// LocalColumnFor returns the local column name paired with a foreign one.
func (fk *ForeignKey) LocalColumnFor(foreign string) (string, bool) {
	n, ok := fk.foreignToLocal[foreign]
	return n, ok
}

// HasFixedCondition reports whether a custom join predicate is declared.
func (fk *ForeignKey) HasFixedCondition() bool {
	return fk.FixedCondition != ""
}

// IsCompound reports a multi-column key.
func (fk *ForeignKey) IsCompound() bool {
	return len(fk.localNames) > 1
}

// IsSelfReference reports whether the key references its own table. It
// compares qualified names after Finalize resolved the foreign table.
func (fk *ForeignKey) IsSelfReference() bool {
	if fk.foreignTable == nil {
		return false
	}
	return fk.table.name.Equal(fk.foreignTable.name) || fk.table == fk.foreignTable
}
