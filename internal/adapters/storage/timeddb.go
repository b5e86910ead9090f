package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Queryer is the statement interface shared by connections and transactions.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *Row
}

// SQLDB is the database interface used by all stores.
type SQLDB interface {
	Queryer
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error)
}

// QueryObserver receives the timing of every statement.
type QueryObserver interface {
	ObserveQuery(op string, d time.Duration, err error)
}

// DefaultSlowQuery is the default threshold for slow query warnings.
const DefaultSlowQuery = 50 * time.Millisecond

// ErrDatabase tags failures reported by the driver, so callers can tell them
// apart from validation errors.
var ErrDatabase = errors.New("database error")

func dbError(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDatabase, err)
}

// Row is a single-row result whose Scan tags driver failures with ErrDatabase.
// sql.ErrNoRows passes through untagged.
type Row struct {
	row *sql.Row
}

// Scan copies the row into dest.
func (r *Row) Scan(dest ...any) error { return dbError(r.row.Scan(dest...)) }

// Err reports a deferred query error.
func (r *Row) Err() error { return dbError(r.row.Err()) }

// Rows is a result set whose Scan and Err tag driver failures with ErrDatabase.
type Rows struct {
	*sql.Rows
}

// Scan copies the current row into dest.
func (r *Rows) Scan(dest ...any) error { return dbError(r.Rows.Scan(dest...)) }

// Err reports the error that ended iteration, if any.
func (r *Rows) Err() error { return dbError(r.Rows.Err()) }

func wrapRows(rows *sql.Rows, err error) (*Rows, error) {
	if err != nil {
		return nil, dbError(err)
	}
	return &Rows{Rows: rows}, nil
}

// TimedDB wraps a *sql.DB to rebind placeholders, log slow queries and report
// timings to an observer. Statements issued with a context returned by InTx
// run inside that transaction.
type TimedDB struct {
	db        *sql.DB
	dialect   Dialect
	observer  QueryObserver
	threshold time.Duration
}

// Compile-time check that *TimedDB satisfies SQLDB.
var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps a *sql.DB with timing instrumentation.
// PRE: db is a valid database connection; observer may be nil
// POST: Returns a TimedDB that logs slow queries and reports to observer
func NewTimedDB(db *sql.DB, dialect Dialect, observer QueryObserver, threshold time.Duration) *TimedDB {
	if threshold <= 0 {
		threshold = DefaultSlowQuery
	}
	return &TimedDB{
		db:        db,
		dialect:   dialect,
		observer:  observer,
		threshold: threshold,
	}
}

// RawDB returns the underlying *sql.DB (needed for migrations and pool config).
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// Dialect returns the SQL dialect of the connection.
func (t *TimedDB) Dialect() Dialect {
	return t.dialect
}

func (t *TimedDB) record(op string, start time.Time, err error) {
	d := time.Since(start)
	durationMs := float64(d.Microseconds()) / 1000.0

	if d >= t.threshold {
		slog.Warn("slow_query", "op", op, "duration_ms", durationMs)
	} else {
		slog.Debug("query", "op", op, "duration_ms", durationMs)
	}
	if t.observer != nil {
		t.observer.ObserveQuery(op, d, err)
	}
}

// ExecContext wraps sql.DB.ExecContext with timing.
// PRE: ctx is valid, query is non-empty
// POST: query executed (inside the context's transaction if any), timing recorded
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	start := time.Now()
	result, err := t.db.ExecContext(ctx, t.dialect.Rebind(query), args...)
	t.record("exec", start, err)
	return result, dbError(err)
}

// QueryContext wraps sql.DB.QueryContext with timing.
// PRE: ctx is valid, query is non-empty
// POST: query executed (inside the context's transaction if any), timing recorded
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, t.dialect.Rebind(query), args...)
	t.record("query", start, err)
	return wrapRows(rows, err)
}

// QueryRowContext wraps sql.DB.QueryRowContext with timing.
// PRE: ctx is valid, query is non-empty
// POST: query executed (inside the context's transaction if any), timing recorded
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRowContext(ctx, query, args...)
	}
	start := time.Now()
	row := t.db.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
	t.record("query_row", start, row.Err())
	return &Row{row: row}
}

// BeginTx starts a transaction. Inside InTx it returns a nested handle whose
// Commit and Rollback are left to the outer unit of work.
// PRE: ctx is valid
// POST: transaction started, timing recorded
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	if outer := txFromContext(ctx); outer != nil {
		return &Tx{tx: outer.tx, owner: t, nested: true}, nil
	}
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.record("begin", start, err)
	if err != nil {
		return nil, dbError(err)
	}
	return &Tx{tx: tx, owner: t}, nil
}

// InTx runs fn in a single transaction. Every statement issued through this
// TimedDB with the context passed to fn joins the transaction. Calls to InTx
// inside fn reuse the outer transaction.
// PRE: fn does not retain ctx after returning
// POST: committed when fn returns nil, rolled back otherwise
func (t *TimedDB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := t.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("tx_rollback_failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// PingContext verifies the database connection.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

type txKey struct{}

func txFromContext(ctx context.Context) *Tx {
	tx, _ := ctx.Value(txKey{}).(*Tx)
	return tx
}

// Tx is a transaction on a TimedDB with the same rebinding and timing.
type Tx struct {
	tx     *sql.Tx
	owner  *TimedDB
	nested bool
}

// Compile-time check that *Tx satisfies Queryer.
var _ Queryer = (*Tx)(nil)

// ExecContext executes a statement inside the transaction.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.tx.ExecContext(ctx, t.owner.dialect.Rebind(query), args...)
	t.owner.record("tx_exec", start, err)
	return result, dbError(err)
}

// QueryContext runs a query inside the transaction.
func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*Rows, error) {
	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, t.owner.dialect.Rebind(query), args...)
	t.owner.record("tx_query", start, err)
	return wrapRows(rows, err)
}

// QueryRowContext runs a single-row query inside the transaction.
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	start := time.Now()
	row := t.tx.QueryRowContext(ctx, t.owner.dialect.Rebind(query), args...)
	t.owner.record("tx_query_row", start, row.Err())
	return &Row{row: row}
}

// Commit commits the transaction. Nested handles do nothing.
func (t *Tx) Commit() error {
	if t.nested {
		return nil
	}
	return dbError(t.tx.Commit())
}

// Rollback aborts the transaction. Nested handles do nothing; the outer
// unit of work rolls back when its function fails.
func (t *Tx) Rollback() error {
	if t.nested {
		return nil
	}
	return t.tx.Rollback()
}
