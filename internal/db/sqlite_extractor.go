package db

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tordrt/relschema/internal/loader"
)

// SQLiteExtractor handles catalog extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite catalog extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the description of the specified tables
// If tables is empty, extracts all tables in the database
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*loader.Description, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	extracted, err := describeTables(ctx, tableNames, e.extractTable)
	if err != nil {
		return nil, err
	}

	desc := &loader.Description{
		Database: loader.DatabaseDesc{Name: "main", Dialect: "sqlite"},
		Tables:   extracted,
	}
	if err := e.completeImplicitReferences(ctx, desc); err != nil {
		return nil, fmt.Errorf("failed to resolve implicit references: %w", err)
	}
	return desc, nil
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// extractTable extracts all information for a single table
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*loader.TableDesc, error) {
	table := &loader.TableDesc{Name: tableName}

	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns
	table.PrimaryKey = pk

	uniques, indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Uniques = uniques
	table.Indexes = indexes

	fks, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	return table, nil
}

// extractColumns extracts column information and the primary key, which
// SQLite reports as a 1-based position per column
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]loader.ColumnDesc, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type pkColumn struct {
		position int
		name     string
	}
	var columns []loader.ColumnDesc
	var pkColumns []pkColumn

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := loader.ColumnDesc{
			Name:    name,
			Type:    colType,
			NotNull: notNull == 1,
		}
		if defaultValue.Valid {
			col.Default = &defaultValue.String
		}
		if pk > 0 {
			pkColumns = append(pkColumns, pkColumn{position: pk, name: name})
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	slices.SortFunc(pkColumns, func(a, b pkColumn) int { return a.position - b.position })
	pk := make([]string, 0, len(pkColumns))
	for _, c := range pkColumns {
		pk = append(pk, c.name)
	}
	return columns, pk, nil
}

// extractIndexes splits the index list into unique constraints (origin "u")
// and plain indexes. Primary key indexes are skipped.
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]loader.UniqueDesc, []loader.IndexDesc, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	type indexEntry struct {
		name   string
		unique bool
		origin string
	}
	var entries []indexEntry
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, nil, err
		}
		if origin == "pk" {
			continue
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1, origin: origin})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	// index_list is newest first
	slices.Reverse(entries)

	var uniques []loader.UniqueDesc
	var indexes []loader.IndexDesc
	for _, entry := range entries {
		columns, err := e.indexColumns(ctx, entry.name)
		if err != nil {
			return nil, nil, err
		}
		if len(columns) == 0 {
			continue
		}
		if entry.origin == "u" {
			name := entry.name
			if strings.HasPrefix(name, "sqlite_autoindex") {
				name = ""
			}
			uniques = append(uniques, loader.UniqueDesc{Name: name, Columns: columns})
			continue
		}
		indexes = append(indexes, loader.IndexDesc{Name: entry.name, Columns: columns, Unique: entry.unique})
	}

	return uniques, indexes, nil
}

// indexColumns returns the named columns of an index; expression parts are
// skipped
func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName))
	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}

// extractForeignKeys extracts foreign keys. SQLite constraints are unnamed,
// so names are left for synthesis; a missing target column means the
// foreign primary key and is completed later.
func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]loader.ForeignKeyDesc, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keyColumns []keyColumn
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		keyColumns = append(keyColumns, keyColumn{
			Constraint:    strconv.Itoa(id),
			Column:        fromCol,
			ForeignTable:  targetTable,
			ForeignColumn: toCol.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// pragma ids run newest first
	fks := groupForeignKeys(keyColumns, "")
	slices.Reverse(fks)
	for i := range fks {
		fks[i].Name = ""
	}
	return fks, nil
}

// completeImplicitReferences fills foreign columns of keys declared as
// "REFERENCES parent" with the parent's primary key
func (e *SQLiteExtractor) completeImplicitReferences(ctx context.Context, desc *loader.Description) error {
	for ti := range desc.Tables {
		for fi := range desc.Tables[ti].ForeignKeys {
			fk := &desc.Tables[ti].ForeignKeys[fi]
			if !slices.Contains(fk.ForeignColumns, "") {
				continue
			}
			var pk []string
			if parent, ok := desc.Table(fk.ForeignTable); ok {
				pk = parent.PrimaryKey
			} else {
				_, parentPK, err := e.extractColumns(ctx, fk.ForeignTable)
				if err != nil {
					return err
				}
				pk = parentPK
			}
			if len(pk) != len(fk.LocalColumns) {
				return fmt.Errorf("table %s references %s without columns, but its primary key has %d columns",
					desc.Tables[ti].Name, fk.ForeignTable, len(pk))
			}
			fk.ForeignColumns = slices.Clone(pk)
		}
	}
	return nil
}
