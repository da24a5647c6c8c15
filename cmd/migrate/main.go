// Command migrate applies, rolls back or reports the marketplace schema
// migrations for the configured store driver.
//
// Usage:
//
//	migrate [up|down|status]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ghuser/nftmarket/migrations/marketplace"
	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/database"
	"github.com/ghuser/nftmarket/pkg/logger"
	"github.com/ghuser/nftmarket/pkg/migrator"
)

func main() {
	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	if err := run(context.Background(), cfg, log, command); err != nil {
		log.Error("migration failed", "command", command, "store", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, command string) error {
	if cfg.StoreDriver == config.StoreMemory {
		return fmt.Errorf("store driver %q has no schema", cfg.StoreDriver)
	}

	dsn := cfg.DefinitionDatabaseURL
	if cfg.StoreDriver == config.StoreSQLite {
		dsn = cfg.SQLitePath
	}
	db, err := database.Open(ctx, cfg.StoreDriver, dsn, log)
	if err != nil {
		return err
	}
	defer db.Close()

	files, err := marketplace.FS(db.Driver())
	if err != nil {
		return err
	}

	switch command {
	case "up":
		version, err := migrator.Up(ctx, db.DB(), db.Driver(), files)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "version", version)
	case "down":
		if err := migrator.Down(ctx, db.DB(), db.Driver(), files); err != nil {
			return err
		}
		log.Info("migration rolled back")
	case "status":
		statuses, err := migrator.Status(ctx, db.DB(), db.Driver(), files)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			log.Info("migration",
				"version", s.Source.Version,
				"path", s.Source.Path,
				"state", string(s.State),
				"applied_at", s.AppliedAt,
			)
		}
	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", command)
	}
	return nil
}
