// Package migrator applies embedded goose migrations.
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/ghuser/nftmarket/pkg/database"
)

// Up applies pending migrations on an open connection and returns the
// resulting schema version.
func Up(ctx context.Context, db *sql.DB, driver string, files fs.FS) (int64, error) {
	provider, err := newProvider(db, driver, files)
	if err != nil {
		return 0, err
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("failed to up migrations: %w", err)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, driver string, files fs.FS) error {
	provider, err := newProvider(db, driver, files)
	if err != nil {
		return err
	}
	if _, err := provider.Down(ctx); err != nil {
		return fmt.Errorf("failed to down migration: %w", err)
	}
	return nil
}

// Status reports every known migration and whether it has been applied.
func Status(ctx context.Context, db *sql.DB, driver string, files fs.FS) ([]*goose.MigrationStatus, error) {
	provider, err := newProvider(db, driver, files)
	if err != nil {
		return nil, err
	}
	st, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	return st, nil
}

func newProvider(db *sql.DB, driver string, files fs.FS) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case database.DriverPostgres:
		dialect = goose.DialectPostgres
	case database.DriverSQLite:
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("migrator: unsupported driver %q", driver)
	}
	provider, err := goose.NewProvider(dialect, db, files)
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}
	return provider, nil
}
