package db

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/relschema/internal/loader"
)

const varcharType = "varchar"

// PostgresExtractor handles catalog extraction from PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates a new PostgreSQL catalog extractor
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// ExtractSchema extracts the description of the specified tables and every
// sequence of the schema.
// If tables is empty, extracts all tables in the schema
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*loader.Description, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	extracted, err := describeTables(ctx, tableNames, e.extractTable)
	if err != nil {
		return nil, err
	}

	sequences, err := e.extractSequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract sequences: %w", err)
	}

	return &loader.Description{
		Database: loader.DatabaseDesc{
			Name:    e.client.DatabaseName(),
			Dialect: "postgresql",
			Schema:  e.schema,
		},
		Tables:    extracted,
		Sequences: sequences,
	}, nil
}

// getTableNames returns the list of tables to extract
func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	return e.queryNames(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, e.schema)
}

// queryNames runs a single-column text query
func (e *PostgresExtractor) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := e.client.GetConnection().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// extractTable extracts all information for a single table
func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*loader.TableDesc, error) {
	table := &loader.TableDesc{Name: tableName}

	columns, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	pk, err := e.extractPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	table.PrimaryKey = pk

	uniques, err := e.extractUniques(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract unique constraints: %w", err)
	}
	table.Uniques = uniques

	fks, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name has underscore prefix for arrays (e.g., "_text" for text[], "_int4" for integer[])
		if len(udtName) > 0 && udtName[0] == '_' {
			elementType := normalizeUdtName(udtName[1:])
			return fmt.Sprintf("%s[]", elementType)
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts PostgreSQL internal type names to more readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case varcharType:
		return varcharType
	default:
		return udtName
	}
}

// extractColumns extracts column information for a table
func (e *PostgresExtractor) extractColumns(ctx context.Context, tableName string) ([]loader.ColumnDesc, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.udt_name,
			c.character_maximum_length,
			col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position)
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []loader.ColumnDesc
	for rows.Next() {
		var col loader.ColumnDesc
		var nullable string
		var dataType string
		var udtName string
		var charMaxLength *int
		var comment *string

		if err := rows.Scan(&col.Name, &dataType, &nullable, &col.Default, &udtName, &charMaxLength, &comment); err != nil {
			return nil, err
		}

		col.NotNull = nullable == "NO"
		col.Type = normalizePostgresType(dataType, udtName, charMaxLength)
		if comment != nil {
			col.Comment = *comment
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// extractPrimaryKey extracts primary key columns
func (e *PostgresExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	return e.queryNames(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
			AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`, e.schema, tableName)
}

// extractUniques extracts unique constraints, one row per column
func (e *PostgresExtractor) extractUniques(ctx context.Context, tableName string) ([]loader.UniqueDesc, error) {
	query := `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'UNIQUE'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keyColumns []keyColumn
	for rows.Next() {
		var kc keyColumn
		if err := rows.Scan(&kc.Constraint, &kc.Column); err != nil {
			return nil, err
		}
		keyColumns = append(keyColumns, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groupUniques(keyColumns), nil
}

// extractForeignKeys extracts foreign key constraints. Compound keys are
// paired column by column through the referenced unique constraint.
func (e *PostgresExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]loader.ForeignKeyDesc, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			ref.table_schema,
			ref.table_name,
			ref.column_name
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = rc.constraint_schema
			AND kcu.constraint_name = rc.constraint_name
		JOIN information_schema.key_column_usage ref
			ON ref.constraint_schema = rc.unique_constraint_schema
			AND ref.constraint_name = rc.unique_constraint_name
			AND ref.ordinal_position = kcu.position_in_unique_constraint
		WHERE kcu.table_schema = $1
			AND kcu.table_name = $2
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keyColumns []keyColumn
	for rows.Next() {
		var kc keyColumn
		if err := rows.Scan(&kc.Constraint, &kc.Column, &kc.ForeignSchema, &kc.ForeignTable, &kc.ForeignColumn); err != nil {
			return nil, err
		}
		keyColumns = append(keyColumns, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groupForeignKeys(keyColumns, e.schema), nil
}

// extractIndexes extracts index information
func (e *PostgresExtractor) extractIndexes(ctx context.Context, tableName string) ([]loader.IndexDesc, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []loader.IndexDesc
	for rows.Next() {
		var idx loader.IndexDesc
		if err := rows.Scan(&idx.Name, &idx.Unique, &idx.Columns); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

// extractSequences extracts the sequences of the schema. Bounds are kept as
// the decimal strings the catalog reports.
func (e *PostgresExtractor) extractSequences(ctx context.Context) ([]loader.SequenceDesc, error) {
	query := `
		SELECT sequence_name, minimum_value, maximum_value, start_value, increment
		FROM information_schema.sequences
		WHERE sequence_schema = $1
		ORDER BY sequence_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sequences []loader.SequenceDesc
	for rows.Next() {
		var seq loader.SequenceDesc
		var increment string
		if err := rows.Scan(&seq.Name, &seq.Minimum, &seq.Maximum, &seq.Start, &increment); err != nil {
			return nil, err
		}
		if n, err := strconv.ParseInt(increment, 10, 64); err == nil {
			seq.Increment = &n
		}
		sequences = append(sequences, seq)
	}

	return sequences, rows.Err()
}
