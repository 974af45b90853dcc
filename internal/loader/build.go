package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/relschema/internal/schema"
)

// Options controls which tables Build keeps.
type Options struct {
	// Tables limits the build to the named tables. Empty keeps all.
	Tables []string
	// Exclude drops the named tables.
	Exclude []string
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) keeps(name string) bool {
	match := func(list []string) bool {
		return slices.ContainsFunc(list, func(s string) bool { return strings.EqualFold(s, name) })
	}
	if len(o.Tables) > 0 && !match(o.Tables) {
		return false
	}
	return !match(o.Exclude)
}

// LoadFile reads a YAML description from path.
func LoadFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()

	desc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return desc, nil
}

// Decode reads a YAML description. Unknown keys are rejected.
func Decode(r io.Reader) (*Description, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var desc Description
	if err := dec.Decode(&desc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty schema description")
		}
		return nil, err
	}
	return &desc, nil
}

// Encode writes desc as YAML.
func Encode(w io.Writer, desc *Description) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(desc); err != nil {
		return err
	}
	return enc.Close()
}

// Build replays desc through the schema builders and finalizes the database.
// Foreign keys pointing at tables dropped by opts are dropped too.
func Build(desc *Description, opts Options) (*schema.Schema, error) {
	log := opts.logger()
	name := desc.Database.Name
	if name == "" {
		name = "main"
	}
	db := schema.NewDatabase(name, desc.Database.Dialect, desc.Database.Schema, schema.WithLogger(log))

	var kept []*TableDesc
	for i := range desc.Tables {
		td := &desc.Tables[i]
		if !opts.keeps(td.Name) {
			log.Debug("table skipped", "table", td.Name)
			continue
		}
		if err := addTable(db, td); err != nil {
			return nil, err
		}
		kept = append(kept, td)
	}

	// Foreign keys go in after every table so that declaration order of the
	// description does not matter.
	for _, td := range kept {
		tbl, _ := db.Table(schema.QualifiedName{Schema: td.Schema, Name: td.Name})
		for _, fd := range td.ForeignKeys {
			if !opts.keeps(fd.ForeignTable) {
				log.Debug("foreign key skipped", "table", td.Name, "foreign_key", fd.Name, "foreign_table", fd.ForeignTable)
				continue
			}
			if _, err := tbl.AddForeignKey(foreignKeySpec(fd)); err != nil {
				return nil, err
			}
		}
	}

	for _, sd := range desc.Sequences {
		spec, err := sequenceSpec(sd)
		if err != nil {
			return nil, err
		}
		if _, err := db.AddSequence(spec); err != nil {
			return nil, err
		}
	}

	if err := db.Finalize(); err != nil {
		return nil, err
	}

	s := schema.NewSchema()
	if err := s.AddDatabase(db); err != nil {
		return nil, err
	}
	return s, nil
}

func addTable(db *schema.Database, td *TableDesc) error {
	tbl, err := db.AddTable(schema.TableSpec{
		Name:    td.Name,
		Schema:  td.Schema,
		Type:    td.Type,
		Comment: td.Comment,
	})
	if err != nil {
		return err
	}
	for _, cd := range td.Columns {
		_, err := tbl.AddColumn(schema.ColumnSpec{
			Name:       cd.Name,
			DBType:     cd.Type,
			Size:       cd.Size,
			NotNull:    cd.NotNull,
			PrimaryKey: cd.PrimaryKey,
			Unique:     cd.Unique,
			MultipleFK: cd.MultipleFK,
			Default:    cd.Default,
			Comment:    cd.Comment,
		})
		if err != nil {
			return err
		}
	}
	if len(td.PrimaryKey) > 0 {
		if err := tbl.SetPrimaryKey(td.PrimaryKey...); err != nil {
			return err
		}
	}
	for _, ud := range td.Uniques {
		if _, err := tbl.AddUnique(ud.Name, ud.Columns...); err != nil {
			return err
		}
	}
	for _, id := range td.Indexes {
		tbl.AddIndex(schema.Index{Name: id.Name, Columns: id.Columns, IsUnique: id.Unique})
	}
	return nil
}

func foreignKeySpec(fd ForeignKeyDesc) schema.ForeignKeySpec {
	return schema.ForeignKeySpec{
		Name:             fd.Name,
		ForeignTable:     fd.ForeignTable,
		ForeignSchema:    fd.ForeignSchema,
		LocalColumns:     fd.LocalColumns,
		ForeignColumns:   fd.ForeignColumns,
		FixedCondition:   fd.FixedCondition,
		FixedSuffix:      fd.FixedSuffix,
		Prefix:           fd.Prefix,
		Comment:          fd.Comment,
		Additional:       fd.Additional,
		SuppressJoin:     fd.SuppressJoin,
		SuppressSubQuery: fd.SuppressSubQuery,
		FixedInline:      fd.FixedInline,
		FixedReferrer:    fd.FixedReferrer,
		FixedOnlyJoin:    fd.FixedOnlyJoin,
		ImplicitReverse:  fd.ImplicitReverse,
		Deprecated:       fd.Deprecated,
	}
}

func sequenceSpec(sd SequenceDesc) (schema.SequenceSpec, error) {
	spec := schema.SequenceSpec{Name: sd.Name, Schema: sd.Schema, Increment: sd.Increment}
	bounds := []struct {
		field string
		raw   string
		dst   **decimal.Decimal
	}{
		{"minimum", sd.Minimum, &spec.Minimum},
		{"maximum", sd.Maximum, &spec.Maximum},
		{"start", sd.Start, &spec.Start},
	}
	for _, b := range bounds {
		if b.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(b.raw)
		if err != nil {
			return spec, fmt.Errorf("sequence %s: invalid %s %q: %w", sd.Name, b.field, b.raw, err)
		}
		*b.dst = &d
	}
	return spec, nil
}
