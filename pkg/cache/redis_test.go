package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ghuser/nftmarket/pkg/config"
)

func newTestConfig(url string) *config.Config {
	return &config.Config{RedisURL: url}
}

func TestNewRedisClient_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"invalid url", "not-a-valid-url"},
		{"unreachable host", "redis://localhost:19999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRedisClient(context.Background(), newTestConfig(tt.url)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRedisClient_CloseZero(t *testing.T) {
	if err := (&RedisClient{}).Close(); err != nil {
		t.Fatalf("Close on zero client: %v", err)
	}
}

func TestTracingHook(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background()) //nolint:errcheck
	hook := newTracingHook(tp, "localhost:6379")
	ctx := context.Background()

	miss := hook.ProcessHook(func(context.Context, redis.Cmder) error { return redis.Nil })
	if err := miss(ctx, redis.NewStringCmd(ctx, "get", "market:listings:active")); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
	down := hook.ProcessPipelineHook(func(context.Context, []redis.Cmder) error { return errors.New("connection refused") })
	if err := down(ctx, []redis.Cmder{redis.NewIntCmd(ctx, "del", "a"), redis.NewIntCmd(ctx, "del", "b")}); err == nil {
		t.Fatal("expected pipeline error")
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "redis.get" || spans[0].Status().Code == codes.Error {
		t.Fatalf("cache miss span: name=%s status=%v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Name() != "redis.pipeline" || spans[1].Status().Code != codes.Error {
		t.Fatalf("pipeline span: name=%s status=%v", spans[1].Name(), spans[1].Status())
	}
}

// Integration tests; skipped unless REDIS_URL is set.
func TestRedisIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	rc, err := NewRedisClient(context.Background(), newTestConfig(redisURL))
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	if rc.Client() == nil {
		t.Fatal("expected non-nil underlying client")
	}
	if err := rc.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
