// Package storage is the ledger store: accounts, categories, transactions and
// budgets on SQLite or PostgreSQL behind one database/sql repository.
//
// Every mutation that touches a balance runs as a single SQL transaction that
// locks the account, writes the transaction row and writes the new balance.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db      *sql.DB
	pool    *pgxpool.Pool // nil on SQLite
	dialect dialect
	now     func() time.Time
}

type Option func(*Repository)

// WithClock overrides the clock used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// sqliteDSN enables WAL, foreign keys and a busy timeout so writers queue on the
// database lock, which every unit of work takes up front with BEGIN IMMEDIATE.
func sqliteDSN(dbPath string) string {
	return "file:" + dbPath +
		"?_pragma=busy_timeout(10000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_txlock=immediate"
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the pool opens so WAL is switched on against the final schema.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return newRepository(db, nil, sqliteDialect, opts), nil
}

func NewPostgresRepository(ctx context.Context, databaseURL string, opts ...Option) (*Repository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	return newRepository(db, pool, postgresDialect, opts), nil
}

func newRepository(db *sql.DB, pool *pgxpool.Pool, d dialect, opts []Option) *Repository {
	r := &Repository{db: db, pool: pool, dialect: d, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Close() error {
	var err error
	if r.db != nil {
		err = r.db.Close()
	}
	if r.pool != nil {
		r.pool.Close()
	}
	return err
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Dialect returns "sqlite" or "postgres".
func (r *Repository) Dialect() string {
	return r.dialect.name
}

// inTx runs fn in one SQL transaction. Any error from fn rolls everything back.
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return r.inTxOpts(ctx, nil, fn)
}

// inSnapshot runs read-only fn against a single consistent snapshot.
func (r *Repository) inSnapshot(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return r.inTxOpts(ctx, r.dialect.snapshot, fn)
}

func (r *Repository) inTxOpts(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, r.dialect.rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, r.dialect.rebind(query), args...)
}

func (r *Repository) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, r.dialect.rebind(query), args...)
}

func (r *Repository) stamp() time.Time {
	return r.now().UTC()
}
