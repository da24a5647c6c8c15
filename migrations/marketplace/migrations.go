// Package marketplace embeds the marketplace schema for each supported SQL dialect.
package marketplace

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/ghuser/nftmarket/pkg/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// FS returns the migration files for driver, rooted so goose sees them at ".".
func FS(driver string) (fs.FS, error) {
	switch driver {
	case database.DriverPostgres, database.DriverSQLite:
		return fs.Sub(files, driver)
	default:
		return nil, fmt.Errorf("marketplace migrations: unsupported driver %q", driver)
	}
}
