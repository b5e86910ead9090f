package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Pool settings applied by Open.
const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute

	// SQLite allows one writer; a single connection queues writers in the pool
	// instead of failing them with SQLITE_BUSY.
	sqliteMaxOpenConns = 1
)

// Open connects to the database for the given dialect and verifies the connection.
// PRE: dsn is a valid SQLite path/URI or Postgres connection string
// POST: Returns a pinged *sql.DB with pool limits applied; one connection for SQLite
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	maxOpen := defaultMaxOpenConns
	if dialect == DialectSQLite {
		maxOpen = sqliteMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}
