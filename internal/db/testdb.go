package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// NewTestDB creates a fresh file-backed SQLite database with the schema applied.
// A file is used instead of :memory: so that pooled connections share state.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// NewMySQLTestDB opens the MySQL database named by DATABASE_URL and applies
// the schema. The test is skipped unless DATABASE_URL is a mysql:// URL.
// Tables are shared, so tests must clean up the rows they create.
func NewMySQLTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if !strings.HasPrefix(url, "mysql://") {
		t.Skip("DATABASE_URL is not a mysql:// URL")
	}

	db, err := Open(url)
	if err != nil {
		t.Fatalf("opening mysql test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating mysql test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
