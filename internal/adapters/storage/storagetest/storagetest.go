// Package storagetest opens migrated in-memory SQLite databases for store tests.
package storagetest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"league/internal/adapters/storage"
)

// Open returns a migrated in-memory database wrapped in a TimedDB.
// The pool is limited to one connection so every statement sees the same database.
func Open(t testing.TB) *storage.TimedDB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := storage.MigrateDB(context.Background(), db, storage.DialectSQLite); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return storage.NewTimedDB(db, storage.DialectSQLite, nil, time.Second)
}

// Exec runs a fixture statement and fails the test on error.
func Exec(t testing.TB, db storage.SQLDB, query string, args ...any) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("fixture %q: %v", query, err)
	}
}

// SeedAssociation inserts a bare association row.
func SeedAssociation(t testing.TB, db storage.SQLDB, id, slug string) {
	t.Helper()
	Exec(t, db, `INSERT INTO association (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		id, slug, slug, storage.FormatTime(time.Now()))
}

// SeedMember inserts a bare active member row.
func SeedMember(t testing.TB, db storage.SQLDB, id, associationID, email string) {
	t.Helper()
	Exec(t, db, `INSERT INTO member (id, association_id, name, email, role, status, joined_at) VALUES (?, ?, ?, ?, 'member', 'active', ?)`,
		id, associationID, id, email, storage.FormatTime(time.Now()))
}
