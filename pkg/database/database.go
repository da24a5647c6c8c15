// Package database owns the SQL connection pool shared by repositories.
//
// Two drivers are supported: PostgreSQL through pgx's database/sql adapter for
// deployments, and an embedded SQLite file through modernc.org/sqlite for
// single-node installs and tests. Repositories ask Driver() which SQL dialect
// to speak.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ghuser/nftmarket/pkg/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database wraps *sql.DB with transaction helpers.
type Database struct {
	db     *sql.DB
	driver string
	log    logger.Logger
}

// NewPool opens a PostgreSQL pool for dbURL and verifies connectivity.
func NewPool(ctx context.Context, dbURL string, log logger.Logger) (*Database, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return &Database{db: db, driver: DriverPostgres, log: log}, nil
}

// OpenSQLite opens (creating if needed) the SQLite database file at path.
// A single connection is used, so every transaction is serialized.
func OpenSQLite(ctx context.Context, path string, log logger.Logger) (*Database, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database: sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping sqlite: %w", err)
	}

	return &Database{db: db, driver: DriverSQLite, log: log}, nil
}

// Open connects with the named driver. dsn is a PostgreSQL URL for
// DriverPostgres and a file path for DriverSQLite.
func Open(ctx context.Context, driver, dsn string, log logger.Logger) (*Database, error) {
	switch driver {
	case DriverPostgres:
		return NewPool(ctx, dsn, log)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn, log)
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

// DB returns the underlying *sql.DB.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Driver reports which SQL dialect the connection speaks.
func (d *Database) Driver() string {
	return d.driver
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, including on panic.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return d.WithTxOptions(ctx, nil, fn)
}

// WithTxOptions is WithTx with explicit isolation and read-only options.
func (d *Database) WithTxOptions(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("database: begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && d.log != nil {
				d.log.ErrorContext(ctx, "database: rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	return nil
}

// Ping checks the database connection health.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close closes the pool.
func (d *Database) Close() {
	if err := d.db.Close(); err != nil && d.log != nil {
		d.log.Error("database: close failed", "error", err)
	}
}
