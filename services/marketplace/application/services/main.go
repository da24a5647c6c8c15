package services

import (
	"context"
	"fmt"

	"github.com/ghuser/nftmarket/migrations/marketplace"
	"github.com/ghuser/nftmarket/pkg/app"
	"github.com/ghuser/nftmarket/pkg/cache"
	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/database"
	"github.com/ghuser/nftmarket/pkg/migrator"
	"github.com/ghuser/nftmarket/services/marketplace/domain/events"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
	"github.com/ghuser/nftmarket/services/marketplace/infrastructure/persistence/memory"
	"github.com/ghuser/nftmarket/services/marketplace/infrastructure/persistence/sqlstore"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Market      *MarketService
	Withdrawals *WithdrawalService
	Store       repositories.Store
}

// New wires all marketplace application services with infrastructure from the
// Application container. The store is migrated and bootstrapped with the
// configured administrator, custodial address and initial listing fee.
func New(ctx context.Context, a *app.Application) (*Services, error) {
	cfg := a.Config

	genesis, err := genesisFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := store.Bootstrap(ctx, genesis); err != nil {
		return nil, fmt.Errorf("bootstrap marketplace: %w", err)
	}

	var marketCache MarketCache
	if a.Redis != nil {
		marketCache = cache.NewMarketCache(a.Redis, cfg.MarketCacheTTL)
	}

	market, err := NewMarketService(store, marketCache, a.Logger, MarketOptions{
		CollectionName:   cfg.CollectionName,
		CollectionSymbol: cfg.CollectionSymbol,
	})
	if err != nil {
		return nil, err
	}
	store.register(market.invalidateCache)

	var starter WithdrawalStarter
	if cfg.WithdrawalsEnabled && a.TemporalClient != nil {
		starter = NewTemporalStarter(a.TemporalClient.Client, cfg.WithdrawalTaskQueue)
	}

	a.Logger.Info("marketplace services initialized",
		"store", cfg.StoreDriver,
		"cache", marketCache != nil,
		"withdrawals", starter != nil,
	)

	return &Services{
		Market:      market,
		Withdrawals: NewWithdrawalService(store, starter, a.Logger),
		Store:       store,
	}, nil
}

// committer is implemented by stores that report committed notifications.
type committer interface {
	repositories.Store
	register(hook func(ctx context.Context, ns []events.Notification))
}

type memoryStore struct{ *memory.Store }

func (s memoryStore) register(hook func(ctx context.Context, ns []events.Notification)) {
	s.OnCommit(hook)
}

type sqlStore struct{ *sqlstore.Store }

func (s sqlStore) register(hook func(ctx context.Context, ns []events.Notification)) {
	s.OnCommit(hook)
}

// openStore selects the store for cfg.StoreDriver, applying SQL migrations first.
func openStore(ctx context.Context, a *app.Application) (committer, error) {
	switch a.Config.StoreDriver {
	case config.StoreMemory:
		return memoryStore{memory.NewStore()}, nil
	case config.StorePostgres, config.StoreSQLite:
		if a.Db == nil {
			return nil, fmt.Errorf("store driver %q requires a database connection", a.Config.StoreDriver)
		}
		files, err := marketplace.FS(a.Db.Driver())
		if err != nil {
			return nil, err
		}
		version, err := migrator.Up(ctx, a.Db.DB(), a.Db.Driver(), files)
		if err != nil {
			return nil, fmt.Errorf("migrate marketplace: %w", err)
		}
		a.Logger.Info("marketplace schema migrated", "driver", a.Db.Driver(), "version", version)

		var opts []sqlstore.Option
		if a.EventBus != nil && a.Db.Driver() == database.DriverPostgres {
			opts = append(opts, sqlstore.WithPublisher(a.EventBus))
		}
		return sqlStore{sqlstore.NewStore(a.Db, a.Logger, opts...)}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", a.Config.StoreDriver)
	}
}

func genesisFromConfig(cfg *config.Config) (repositories.Genesis, error) {
	admin, err := models.ParseAddress(cfg.MarketplaceAdmin)
	if err != nil {
		return repositories.Genesis{}, fmt.Errorf("MARKETPLACE_ADMIN: %w", err)
	}
	custodian, err := models.ParseAddress(cfg.MarketplaceAddress)
	if err != nil {
		return repositories.Genesis{}, fmt.Errorf("MARKETPLACE_ADDRESS: %w", err)
	}
	fee, err := models.ParseAmount(cfg.ListingFee)
	if err != nil {
		return repositories.Genesis{}, fmt.Errorf("LISTING_FEE: %w", err)
	}
	return repositories.Genesis{Administrator: admin, Custodian: custodian, ListingFee: fee}, nil
}
