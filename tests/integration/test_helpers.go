//go:build integration
// +build integration

package integration

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/tordrt/relschema/internal/loader"
	"github.com/tordrt/relschema/internal/relation"
	"github.com/tordrt/relschema/internal/schema"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// verifyTablesExist checks that all expected tables are present in the description
func verifyTablesExist(t *testing.T, desc *loader.Description, expectedTables []string) {
	t.Helper()

	if len(desc.Tables) != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), len(desc.Tables))
	}

	for _, tableName := range expectedTables {
		if _, ok := desc.Table(tableName); !ok {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *loader.TableDesc, expectedColumns []string) {
	t.Helper()

	columnMap := make(map[string]bool)
	for _, col := range table.Columns {
		columnMap[col.Name] = true
	}

	for _, colName := range expectedColumns {
		if !columnMap[colName] {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key
func verifyPrimaryKey(t *testing.T, table *loader.TableDesc, expectedPK []string) {
	t.Helper()

	if strings.Join(table.PrimaryKey, ",") != strings.Join(expectedPK, ",") {
		t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
	}
}

// verifyUniqueConstraint checks that a column is covered by a single-column
// unique constraint
func verifyUniqueConstraint(t *testing.T, desc *loader.Description, tableName, columnName string) {
	t.Helper()

	table := findTable(t, desc, tableName)
	for _, col := range table.Columns {
		if col.Name == columnName && col.Unique {
			return
		}
	}
	for _, u := range table.Uniques {
		if len(u.Columns) == 1 && u.Columns[0] == columnName {
			return
		}
	}

	t.Errorf("Expected %s.%s to have a unique constraint", tableName, columnName)
}

// verifyForeignKey checks that a foreign key exists from sourceColumn to targetTable
func verifyForeignKey(t *testing.T, desc *loader.Description, tableName, sourceColumn, targetTable string) {
	t.Helper()

	table := findTable(t, desc, tableName)
	for _, fk := range table.ForeignKeys {
		if fk.ForeignTable == targetTable && len(fk.LocalColumns) == 1 && fk.LocalColumns[0] == sourceColumn {
			return
		}
	}

	t.Errorf("Expected foreign key relationship from %s.%s to %s not found", tableName, sourceColumn, targetTable)
}

// verifyIndex checks that an index exists with the expected columns
func verifyIndex(t *testing.T, desc *loader.Description, tableName, indexName string, expectedColumns []string) {
	t.Helper()

	table := findTable(t, desc, tableName)
	for _, idx := range table.Indexes {
		if idx.Name == indexName {
			if strings.Join(idx.Columns, ",") != strings.Join(expectedColumns, ",") {
				t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
			}
			return
		}
	}

	t.Errorf("Expected index %s on %s table not found", indexName, tableName)
}

// verifyResolves builds the description and resolves every relation
func verifyResolves(t *testing.T, desc *loader.Description) *relation.Resolution {
	t.Helper()

	s, err := loader.Build(desc, loader.Options{Logger: quiet})
	if err != nil {
		t.Fatalf("Failed to build schema: %v", err)
	}
	r, err := relation.NewResolver(s.Database(), nil, relation.WithLogger(quiet))
	if err != nil {
		t.Fatalf("Failed to create resolver: %v", err)
	}
	res, err := r.ResolveAll(context.Background())
	if err != nil {
		t.Fatalf("Failed to resolve relations: %v", err)
	}

	for _, rel := range res.Relations() {
		if rel.Foreign().Property == "" {
			t.Errorf("Relation %s has no foreign property name", rel.ConstraintName())
		}
	}
	if conflicts := res.Conflicts(); len(conflicts) > 0 {
		t.Errorf("Unexpected property conflicts: %v", conflicts)
	}
	return res
}

// verifyReferrer checks that foreignTable gets a back-reference from localTable
func verifyReferrer(t *testing.T, res *relation.Resolution, foreignTable, localTable string) {
	t.Helper()

	table, ok := res.Database().Table(schema.QualifiedName{Name: foreignTable})
	if !ok {
		t.Fatalf("Table %s not found", foreignTable)
	}
	for _, rel := range res.ReferrerRelations(table) {
		if strings.EqualFold(rel.LocalTable().Name().Name, localTable) {
			if rel.Referrer().Property == "" {
				t.Errorf("Referrer from %s on %s has no property name", localTable, foreignTable)
			}
			return
		}
	}

	t.Errorf("Expected referrer from %s on %s not found", localTable, foreignTable)
}

// findTable is a helper function to find a table by name in the description
func findTable(t *testing.T, desc *loader.Description, tableName string) *loader.TableDesc {
	t.Helper()

	table, ok := desc.Table(tableName)
	if !ok {
		t.Fatalf("Table %s not found", tableName)
	}
	return table
}
