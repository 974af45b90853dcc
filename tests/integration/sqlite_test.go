//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/tordrt/relschema/internal/db"
)

func sqliteTestPath() string {
	// Use environment variable if set, otherwise use default test database
	if dbPath := os.Getenv("SQLITE_TEST_PATH"); dbPath != "" {
		return dbPath
	}
	return "../../test.db"
}

func TestSQLiteExtraction(t *testing.T) {
	ctx := context.Background()

	client, err := db.NewSQLiteClient(ctx, sqliteTestPath())
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer client.Close()

	desc, err := db.NewSQLiteExtractor(client).ExtractSchema(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	// Verify tables exist
	expectedTables := []string{"users", "products", "orders", "order_items"}
	verifyTablesExist(t, desc, expectedTables)

	// Verify users table structure
	table := findTable(t, desc, "users")
	verifyPrimaryKey(t, table, []string{"id"})
	verifyColumns(t, table, []string{"id", "username", "email", "status", "created_at"})

	verifyUniqueConstraint(t, desc, "users", "username")
	verifyForeignKey(t, desc, "orders", "user_id", "users")
	verifyIndex(t, desc, "products", "idx_category", []string{"category"})

	res := verifyResolves(t, desc)
	verifyReferrer(t, res, "users", "orders")
	verifyReferrer(t, res, "orders", "order_items")
}

func TestSQLiteSpecificTables(t *testing.T) {
	ctx := context.Background()

	client, err := db.NewSQLiteClient(ctx, sqliteTestPath())
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer client.Close()

	// Extract only users and products tables
	desc, err := db.NewSQLiteExtractor(client).ExtractSchema(ctx, []string{"users", "products"})
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	verifyTablesExist(t, desc, []string{"users", "products"})
	if _, ok := desc.Table("orders"); ok {
		t.Error("Should not include orders table")
	}

	res := verifyResolves(t, desc)
	if len(res.Relations()) != 0 {
		t.Errorf("Expected no relations between users and products, got %d", len(res.Relations()))
	}
}
