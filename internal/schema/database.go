package schema

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/tordrt/relschema/internal/naming"
)

// Role tags of synthesized constraint names.
const (
	ForeignKeyRole = "FK"
	UniqueRole     = "UQ"
)

// Database owns the tables and sequences of a schema. Tables keep their
// insertion order and are additionally indexed by qualified name.
type Database struct {
	Name          string
	Dialect       string
	DefaultSchema string

	tables     []*Table
	tableIndex map[string]*Table
	sequences  []*Sequence

	registry *naming.Registry
	logger   *slog.Logger

	finalizeOnce sync.Once
	finalizeErr  error
	finalized    bool
}

// DatabaseOption configures a Database.
type DatabaseOption func(*Database)

// WithLogger sets the logger used while finalizing.
func WithLogger(l *slog.Logger) DatabaseOption {
	return func(d *Database) {
		d.logger = l
	}
}

// NewDatabase creates an empty database.
func NewDatabase(name, dialect, defaultSchema string, opts ...DatabaseOption) *Database {
	d := &Database{
		Name:          name,
		Dialect:       dialect,
		DefaultSchema: defaultSchema,
		tableIndex:    make(map[string]*Table),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.registry = naming.NewRegistry(d.logger)
	return d
}

// AddTable registers a table. Table names must be unique per schema.
func (d *Database) AddTable(spec TableSpec) (*Table, error) {
	if d.finalized {
		return nil, fmt.Errorf("add table %s: database %s is already finalized", spec.Name, d.Name)
	}
	if spec.Name == "" {
		return nil, NewConfigError("", "", "", "table name is required")
	}
	qn := QualifiedName{Schema: spec.Schema, Name: spec.Name}
	key := d.normalize(qn).key()
	if _, ok := d.tableIndex[key]; ok {
		return nil, NewConfigError("", qn.String(), "", "duplicate table")
	}
	typ := spec.Type
	if typ == "" {
		typ = "TABLE"
	}
	t := &Table{
		db:          d,
		name:        qn,
		Type:        typ,
		Comment:     spec.Comment,
		columnIndex: make(map[string]*Column),
	}
	d.tables = append(d.tables, t)
	d.tableIndex[key] = t
	return t, nil
}

// AddSequence registers a sequence.
func (d *Database) AddSequence(spec SequenceSpec) (*Sequence, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("sequence name is required")
	}
	if spec.Minimum != nil && spec.Maximum != nil && spec.Minimum.GreaterThan(*spec.Maximum) {
		return nil, fmt.Errorf("sequence %s: minimum %s exceeds maximum %s", spec.Name, spec.Minimum, spec.Maximum)
	}
	s := &Sequence{
		name:      QualifiedName{Schema: spec.Schema, Name: spec.Name},
		Minimum:   spec.Minimum,
		Maximum:   spec.Maximum,
		Start:     spec.Start,
		Increment: spec.Increment,
	}
	d.sequences = append(d.sequences, s)
	return s, nil
}

// Tables returns the tables in insertion order.
func (d *Database) Tables() []*Table {
	return d.tables
}

// Sequences returns the sequences in insertion order.
func (d *Database) Sequences() []*Sequence {
	return d.sequences
}

// Table looks a table up by qualified name. An empty schema means the
// default schema. Lookup is case-insensitive.
func (d *Database) Table(qn QualifiedName) (*Table, bool) {
	t, ok := d.tableIndex[d.normalize(qn).key()]
	return t, ok
}

// Collisions returns the synthesized constraint names that collided.
func (d *Database) Collisions() []naming.Collision {
	return d.registry.Collisions()
}

// Registry returns the name registry of this generation run.
func (d *Database) Registry() *naming.Registry {
	return d.registry
}

// Finalized reports whether Finalize completed successfully.
func (d *Database) Finalized() bool {
	return d.finalized && d.finalizeErr == nil
}

func (d *Database) normalize(qn QualifiedName) QualifiedName {
	if qn.Schema == "" {
		qn.Schema = d.DefaultSchema
	}
	return qn
}

// Finalize runs the one-time pass that closes the load phase: foreign key
// references are resolved by name, multiple-FK columns are marked, referrer
// back-references are wired and missing constraint names are synthesized.
// Subsequent calls return the first result.
func (d *Database) Finalize() error {
	d.finalizeOnce.Do(func() {
		d.finalizeErr = d.finalize()
		d.finalized = true
	})
	return d.finalizeErr
}

func (d *Database) finalize() error {
	d.nameConstraints()

	for _, t := range d.tables {
		for _, fk := range t.foreignKeys {
			if err := d.resolveForeignKey(fk); err != nil {
				return err
			}
		}
	}

	for _, t := range d.tables {
		t.markMultipleFK()
		for _, fk := range t.foreignKeys {
			fk.foreignTable.referrers = append(fk.foreignTable.referrers, fk)
		}
	}

	d.logger.Debug("database finalized",
		"database", d.Name,
		"tables", len(d.tables),
		"sequences", len(d.sequences))
	return nil
}

func (d *Database) resolveForeignKey(fk *ForeignKey) error {
	local := fk.table
	foreignName := fk.foreignName
	if foreignName.Schema == "" {
		foreignName.Schema = local.name.Schema
	}
	ft, ok := d.Table(foreignName)
	if !ok {
		return NewConfigError(fk.name, local.name.String(), "foreign table "+foreignName.String(), "foreign table not found")
	}

	localCols := make([]*Column, 0, len(fk.localNames))
	for _, n := range fk.localNames {
		c, ok := local.Column(n)
		if !ok {
			return NewConfigError(fk.name, local.name.String(), "local column "+n, "column not found in local table")
		}
		localCols = append(localCols, c)
	}
	foreignCols := make([]*Column, 0, len(fk.foreignNames))
	for _, n := range fk.foreignNames {
		c, ok := ft.Column(n)
		if !ok {
			return NewConfigError(fk.name, local.name.String(), "foreign column "+ft.name.String()+"."+n, "column not found in foreign table")
		}
		foreignCols = append(foreignCols, c)
	}

	fk.foreignTable = ft
	fk.localColumns = localCols
	fk.foreignColumns = foreignCols
	return nil
}

func (d *Database) nameConstraints() {
	for _, t := range d.tables {
		for i, fk := range t.foreignKeys {
			seq := i + 1
			source := "foreign key #" + strconv.Itoa(seq) + " of " + t.name.String()
			if fk.name != "" {
				d.registry.Record(source, fk.name)
				continue
			}
			fk.name = d.registry.Generate(source, t.name.Name, ForeignKeyRole, seq)
			fk.generatedName = true
		}
		for i, u := range t.uniques {
			seq := i + 1
			source := "unique constraint #" + strconv.Itoa(seq) + " of " + t.name.String()
			if u.name != "" {
				d.registry.Record(source, u.name)
				continue
			}
			u.name = d.registry.Generate(source, t.name.Name, UniqueRole, seq)
			u.generated = true
		}
	}
}
