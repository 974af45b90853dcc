package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/relschema/internal/loader"
)

// SchemaExtractor reads catalog metadata into a schema description
type SchemaExtractor interface {
	ExtractSchema(ctx context.Context, tables []string) (*loader.Description, error)
}

// keyColumn is one column of a catalog constraint, as information_schema and
// the SQLite pragmas list them: one row per column pair.
type keyColumn struct {
	Constraint    string
	Column        string
	ForeignSchema string
	ForeignTable  string
	ForeignColumn string
}

// groupForeignKeys folds per-column rows into one foreign key per constraint,
// keeping the order in which constraints first appear
func groupForeignKeys(rows []keyColumn, localSchema string) []loader.ForeignKeyDesc {
	var fks []loader.ForeignKeyDesc
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Constraint]
		if !ok {
			i = len(fks)
			index[r.Constraint] = i
			fk := loader.ForeignKeyDesc{Name: r.Constraint, ForeignTable: r.ForeignTable}
			if r.ForeignSchema != "" && !strings.EqualFold(r.ForeignSchema, localSchema) {
				fk.ForeignSchema = r.ForeignSchema
			}
			fks = append(fks, fk)
		}
		fks[i].LocalColumns = append(fks[i].LocalColumns, r.Column)
		fks[i].ForeignColumns = append(fks[i].ForeignColumns, r.ForeignColumn)
	}
	return fks
}

// groupUniques folds per-column rows into one unique constraint per name
func groupUniques(rows []keyColumn) []loader.UniqueDesc {
	var uniques []loader.UniqueDesc
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Constraint]
		if !ok {
			i = len(uniques)
			index[r.Constraint] = i
			uniques = append(uniques, loader.UniqueDesc{Name: r.Constraint})
		}
		uniques[i].Columns = append(uniques[i].Columns, r.Column)
	}
	return uniques
}

// tableExtractor extracts a single table
type tableExtractor func(ctx context.Context, tableName string) (*loader.TableDesc, error)

// describeTables runs extract for every table name and collects the results
func describeTables(ctx context.Context, tableNames []string, extract tableExtractor) ([]loader.TableDesc, error) {
	tables := make([]loader.TableDesc, 0, len(tableNames))
	for _, tableName := range tableNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := extract(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		tables = append(tables, *table)
	}
	return tables, nil
}

// quoteIdent quotes an identifier for statements that cannot take bind
// parameters, such as SQLite pragmas
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
