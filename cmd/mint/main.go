// Command mint lists a batch of new tokens from a TOML file, paying the
// current listing fee for each.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ghuser/nftmarket/pkg/app"
	"github.com/ghuser/nftmarket/pkg/cache"
	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/database"
	"github.com/ghuser/nftmarket/pkg/events"
	"github.com/ghuser/nftmarket/pkg/logger"
	marketServices "github.com/ghuser/nftmarket/services/marketplace/application/services"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

func main() {
	file := flag.String("file", "tokens.toml", "TOML batch of tokens to list")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	b, err := loadBatch(*file)
	if err != nil {
		log.Error("invalid batch file", "file", *file, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a := &app.Application{Config: cfg, Logger: log}

	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("memory store: listings are discarded when mint exits")
	} else {
		dsn := cfg.DefinitionDatabaseURL
		if cfg.StoreDriver == config.StoreSQLite {
			dsn = cfg.SQLitePath
		}
		db, err := database.Open(ctx, cfg.StoreDriver, dsn, log)
		if err != nil {
			log.Error("failed to connect to database", "driver", cfg.StoreDriver, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		a.Db = db
	}

	// Notifications go through the outbox so workers and caches see the new listings.
	if cfg.StoreDriver == config.StorePostgres {
		eventBus, err := events.NewEventBusWithForwarder(cfg, log)
		if err != nil {
			log.Error("failed to setup event bus", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer eventBus.Close() //nolint:errcheck
		a.EventBus = eventBus
	}

	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable, cached listings expire on their own", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			a.Redis = redisClient
		}
	}

	svcs, err := marketServices.New(ctx, a)
	if err != nil {
		log.Error("failed to initialize marketplace", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	ids, err := mintBatch(ctx, svcs.Market, b, log)
	if err != nil {
		log.Error("mint stopped", "listed", len(ids), "remaining", len(b.Listings)-len(ids), "error", err)
		os.Exit(1) //nolint:gocritic
	}
	log.Info("batch listed", "caller", b.Caller.String(), "token_ids", ids)
}

// mintBatch lists every entry of b in order and returns the assigned token
// ids. It stops at the first failure; earlier listings stay committed.
func mintBatch(ctx context.Context, market *marketServices.MarketService, b *batch, log logger.Logger) ([]int64, error) {
	ids := make([]int64, 0, len(b.Listings))
	for _, l := range b.Listings {
		fee, err := market.ListingFee(ctx)
		if err != nil {
			return ids, fmt.Errorf("read listing fee: %w", err)
		}
		evt, err := market.CreateToken(ctx, models.Invocation{Caller: b.Caller, Payment: fee}, l.Descriptor, l.Price)
		if err != nil {
			return ids, fmt.Errorf("list %q: %w", l.Descriptor, err)
		}
		log.InfoContext(ctx, "token listed",
			"token_id", evt.TokenID,
			"descriptor", l.Descriptor,
			"price", l.Price.String(),
			"fee", fee.String(),
		)
		ids = append(ids, evt.TokenID)
	}
	return ids, nil
}
