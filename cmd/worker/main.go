package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/nftmarket/pkg/app"
	"github.com/ghuser/nftmarket/pkg/cache"
	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/database"
	"github.com/ghuser/nftmarket/pkg/events"
	"github.com/ghuser/nftmarket/pkg/logger"
	"github.com/ghuser/nftmarket/pkg/telemetry"
	"github.com/ghuser/nftmarket/pkg/workflows"
	marketServices "github.com/ghuser/nftmarket/services/marketplace/application/services"
	marketWorkflows "github.com/ghuser/nftmarket/services/marketplace/application/workflows"
	marketEvents "github.com/ghuser/nftmarket/services/marketplace/domain/events"
	"github.com/ghuser/nftmarket/services/marketplace/infrastructure/payout"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	// The worker shares ledger state with the API through the database.
	if cfg.StoreDriver == config.StoreMemory {
		log.Error("worker requires a shared store", "store", cfg.StoreDriver)
		os.Exit(1)
	}

	ctx := context.Background()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	dsn := cfg.DefinitionDatabaseURL
	if cfg.StoreDriver == config.StoreSQLite {
		dsn = cfg.SQLitePath
	}
	db, err := database.Open(ctx, cfg.StoreDriver, dsn, log)
	if err != nil {
		log.Error("failed to connect to database", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer db.Close()
	log.Info("database connected", "driver", cfg.StoreDriver)

	a := &app.Application{Config: cfg, Db: db, Logger: log}

	if cfg.StoreDriver == config.StorePostgres {
		eventBus, err := events.NewEventBus(cfg, log)
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
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer redisClient.Close() //nolint:errcheck
		a.Redis = redisClient
		log.Info("redis connected")
	}

	if cfg.WithdrawalsEnabled {
		temporalClient, err := workflows.NewTemporalClient(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize temporal client", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer temporalClient.Close()
		a.TemporalClient = temporalClient
	}

	svcs, err := marketServices.New(ctx, a)
	if err != nil {
		log.Error("failed to initialize marketplace", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	subCtx, cancelSubs := context.WithCancel(ctx)
	defer cancelSubs()
	if a.EventBus != nil && a.Redis != nil {
		if err := registerSubscribers(subCtx, a, svcs); err != nil {
			log.Error("failed to register subscribers", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	if a.TemporalClient != nil {
		w := a.TemporalClient.NewWorker(cfg.WithdrawalTaskQueue)
		w.RegisterWorkflow(marketWorkflows.WithdrawalWorkflow)
		w.RegisterActivity(&marketWorkflows.Activities{
			Store:  svcs.Store,
			Payout: payout.NewClient(cfg.PayoutGatewayURL),
		})
		if err := w.Start(); err != nil {
			log.Error("failed to start temporal worker", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer w.Stop()
		log.Info("withdrawal worker started", "task_queue", cfg.WithdrawalTaskQueue)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancelSubs()

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// registerSubscribers keeps the shared Redis read model in step with ledger
// commits made by any API instance.
func registerSubscribers(ctx context.Context, a *app.Application, svcs *marketServices.Services) error {
	errCh, err := a.EventBus.Subscribe(ctx, handleLedgerChange(a, svcs.Market), marketEvents.Topics...)
	if err != nil {
		return err
	}

	// Drain subscriber errors in background so the channel never blocks.
	go func() {
		for err := range errCh {
			a.Logger.ErrorContext(ctx, "subscriber error", "error", err)
		}
	}()

	a.Logger.Info("event subscribers registered", "topics", marketEvents.Topics)
	return nil
}

// handleLedgerChange refreshes the cached views of the token named in the event.
// Handlers must be idempotent; EventBus retries up to 3x on failure.
func handleLedgerChange(a *app.Application, market *marketServices.MarketService) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt struct {
			TokenID int64 `json:"token_id"`
		}
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}

		var ids []int64
		if evt.TokenID > 0 {
			ids = append(ids, evt.TokenID)
		}
		if err := market.Refresh(ctx, ids...); err != nil {
			// Cache refresh is best-effort; log but do not fail the handler.
			a.Logger.WarnContext(ctx, "cache refresh failed", "event_id", events.EventID(msg), "token_id", evt.TokenID, "error", err)
			return nil
		}
		a.Logger.InfoContext(ctx, "cache refreshed", "event_id", events.EventID(msg), "token_id", evt.TokenID)
		return nil
	}
}
