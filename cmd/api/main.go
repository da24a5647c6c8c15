package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/nftmarket/docs/swagger"
	"github.com/ghuser/nftmarket/pkg/app"
	"github.com/ghuser/nftmarket/pkg/auth"
	"github.com/ghuser/nftmarket/pkg/cache"
	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/database"
	"github.com/ghuser/nftmarket/pkg/events"
	"github.com/ghuser/nftmarket/pkg/httpx"
	"github.com/ghuser/nftmarket/pkg/logger"
	"github.com/ghuser/nftmarket/pkg/telemetry"
	"github.com/ghuser/nftmarket/pkg/workflows"
	marketApi "github.com/ghuser/nftmarket/services/marketplace/application/api"
	marketServices "github.com/ghuser/nftmarket/services/marketplace/application/services"
)

// @title					NFT Marketplace API
// @version				1.0
// @description			Custodial NFT marketplace ledger: list, buy and resell tokens and withdraw proceeds.
// @contact.name			API Support
// @license.name			MIT
// @license.url			https://opensource.org/licenses/MIT
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
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

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	a := &app.Application{Config: cfg, Logger: log}

	if cfg.StoreDriver != config.StoreMemory {
		db, err := database.Open(ctx, cfg.StoreDriver, storeDSN(cfg), log)
		if err != nil {
			log.Error("failed to connect to database", "driver", cfg.StoreDriver, "error", err)
			os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
		}
		defer db.Close()
		a.Db = db
		log.Info("database connected", "driver", cfg.StoreDriver)
	}

	// The outbox lives in PostgreSQL; other drivers only notify in-process.
	if cfg.StoreDriver == config.StorePostgres {
		eventBus, err := events.NewEventBusWithForwarder(cfg, log)
		if err != nil {
			log.Error("failed to setup event bus", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer eventBus.Close() //nolint:errcheck

		if err := eventBus.StartForwarder(ctx); err != nil {
			log.Error("failed to start event forwarder", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		a.EventBus = eventBus
	}

	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic // intentional: startup failure
		}
		defer redisClient.Close() //nolint:errcheck
		a.Redis = redisClient
		log.Info("redis connected")
	}

	if cfg.WithdrawalsEnabled {
		temporalClient, err := workflows.NewTemporalClient(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize temporal client", "error", err)
			os.Exit(1) //nolint:gocritic // intentional: startup failure
		}
		defer temporalClient.Close()
		a.TemporalClient = temporalClient
	}

	a.SessionStore = newSessionStore(cfg, a.Redis)

	svcs, err := marketServices.New(ctx, a)
	if err != nil {
		log.Error("failed to initialize marketplace", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	serverConfig := httpx.ServerConfig{
		Addr:               cfg.HTTPAddr,
		IsDevelopment:      cfg.Environment == config.EnvDevelopment,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestsPerMinute:  cfg.RateLimitPerMinute,
		MaxBodyBytes:       cfg.MaxRequestBytes,
		HandlerTimeout:     cfg.RequestTimeout,
	}
	r := httpx.NewRouter(
		serverConfig,
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
	)

	checks := httpx.HealthChecks{"database": nil, "redis": nil, "event_bus": nil, "temporal": nil}
	if a.Db != nil {
		checks["database"] = a.Db
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis
	}
	if a.EventBus != nil {
		checks["event_bus"] = a.EventBus
	}
	if a.TemporalClient != nil {
		checks["temporal"] = a.TemporalClient
	}
	r.Get("/health", httpx.HealthHandler(checks))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		marketApi.MarketRoutes(r, a, svcs)
	})

	srv := httpx.NewServer(serverConfig, r)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func storeDSN(cfg *config.Config) string {
	if cfg.StoreDriver == config.StoreSQLite {
		return cfg.SQLitePath
	}
	return cfg.DefinitionDatabaseURL
}

// newSessionStore keeps sessions in Redis when available and in signed,
// encrypted cookies otherwise.
func newSessionStore(cfg *config.Config, redisClient *cache.RedisClient) sessions.Store {
	secure := cfg.Environment == config.EnvProduction
	if redisClient != nil {
		return auth.NewSessionStore(
			redisClient.Client(),
			[]byte(cfg.SessionAuthKey),
			[]byte(cfg.SessionEncryptionKey),
			cfg.SessionTTL,
			secure,
		)
	}
	store := sessions.NewCookieStore([]byte(cfg.SessionAuthKey), []byte(cfg.SessionEncryptionKey))
	store.Options.MaxAge = int(cfg.SessionTTL / time.Second)
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}
