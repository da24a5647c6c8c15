package app

import (
	"github.com/gorilla/sessions"

	"github.com/ghuser/nftmarket/pkg/cache"
	"github.com/ghuser/nftmarket/pkg/config"
	"github.com/ghuser/nftmarket/pkg/database"
	"github.com/ghuser/nftmarket/pkg/events"
	"github.com/ghuser/nftmarket/pkg/logger"
	"github.com/ghuser/nftmarket/pkg/workflows"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to every bounded context's services.New during process initialization.
//
// Only Config and Logger are always set. Db is nil for STORE_DRIVER=memory,
// EventBus is nil unless the store runs on PostgreSQL, and Redis and
// TemporalClient are nil when those backends are not configured.
//
// Logging: app.Logger is backed by a trace-aware handler. Use slog's context methods
// and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "token listed", "token_id", id)
//	app.Logger.ErrorContext(ctx, "purchase failed", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	TemporalClient *workflows.TemporalClient
	SessionStore   sessions.Store // nil in worker and CLI processes
}
