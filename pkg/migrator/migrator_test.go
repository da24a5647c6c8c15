package migrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ghuser/nftmarket/migrations/marketplace"
	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/database"
	"github.com/ghuser/nftmarket/pkg/logger"
)

func TestUp_SQLite(t *testing.T) {
	ctx := context.Background()
	log := logger.New(&config.Config{LogLevel: "error"})
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "m.db"), log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	files, err := marketplace.FS(database.DriverSQLite)
	if err != nil {
		t.Fatalf("fs: %v", err)
	}

	version, err := Up(ctx, db.DB(), database.DriverSQLite, files)
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected schema version 2, got %d", version)
	}

	// Running again is a no-op.
	if _, err := Up(ctx, db.DB(), database.DriverSQLite, files); err != nil {
		t.Fatalf("second up: %v", err)
	}

	st, err := Status(ctx, db.DB(), database.DriverSQLite, files)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(st) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(st))
	}

	if err := Down(ctx, db.DB(), database.DriverSQLite, files); err != nil {
		t.Fatalf("down: %v", err)
	}
	var n int
	err = db.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'withdrawals'`).Scan(&n)
	if err != nil || n != 0 {
		t.Fatalf("expected withdrawals table dropped, n=%d err=%v", n, err)
	}
}

func TestUp_UnsupportedDriver(t *testing.T) {
	if _, err := Up(context.Background(), nil, "mysql", nil); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
