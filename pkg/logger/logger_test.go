package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func setupTracer(t *testing.T) {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("parse log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestContextHandler_TraceIDs(t *testing.T) {
	setupTracer(t)
	var buf bytes.Buffer
	log := newLogger(&buf, slog.LevelDebug)

	log.InfoContext(context.Background(), "no span")
	if _, ok := lastEntry(t, &buf)["trace_id"]; ok {
		t.Fatal("trace_id without an active span")
	}

	ctx, parent := otel.Tracer("test").Start(context.Background(), "buy")
	log.InfoContext(ctx, "parent")
	parentEntry := lastEntry(t, &buf)

	ctx, child := otel.Tracer("test").Start(ctx, "transfer")
	log.ErrorContext(ctx, "child", "error", errors.New("boom"), "token_id", 7)
	childEntry := lastEntry(t, &buf)
	child.End()
	parent.End()

	if parentEntry["trace_id"] == nil || parentEntry["trace_id"] != childEntry["trace_id"] {
		t.Fatalf("expected one trace id, got %v and %v", parentEntry["trace_id"], childEntry["trace_id"])
	}
	if parentEntry["span_id"] == childEntry["span_id"] {
		t.Fatal("expected distinct span ids")
	}
	if childEntry["error"] != "boom" || childEntry["token_id"] != float64(7) {
		t.Fatalf("unexpected fields: %v", childEntry)
	}
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, slog.LevelInfo)

	ctx := WithAttrs(context.Background(), "caller", "0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	ctx = WithAttrs(ctx, "token_id", 3)
	log.InfoContext(ctx, "token listed")

	entry := lastEntry(t, &buf)
	if entry["caller"] != "0x70997970c51812dc3a010c7d01b50e0d17dc79c8" || entry["token_id"] != float64(3) {
		t.Fatalf("context attributes missing: %v", entry)
	}

	log.InfoContext(context.Background(), "unrelated")
	if _, ok := lastEntry(t, &buf)["caller"]; ok {
		t.Fatal("attributes leaked into an unrelated context")
	}
	if WithAttrs(ctx) != ctx {
		t.Fatal("WithAttrs without args must return ctx unchanged")
	}
}

func TestMiddleware(t *testing.T) {
	setupTracer(t)
	var buf bytes.Buffer
	log := newLogger(&buf, slog.LevelInfo)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(log))
	r.Get("/market/items", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	r.Get("/market/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})

	tests := []struct {
		path      string
		wantLevel string
		wantCode  float64
	}{
		{"/market/items", "INFO", http.StatusOK},
		{"/market/boom", "ERROR", http.StatusBadGateway},
	}
	for _, tt := range tests {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
		entry := lastEntry(t, &buf)
		if entry["level"] != tt.wantLevel || entry["status"] != tt.wantCode || entry["path"] != tt.path {
			t.Fatalf("%s: unexpected entry %v", tt.path, entry)
		}
		if _, ok := entry["request_id"]; !ok {
			t.Fatalf("%s: request_id missing", tt.path)
		}
	}
	if got := lastEntry(t, &buf)["bytes"]; got != float64(0) {
		t.Fatalf("expected 0 bytes for the failed request, got %v", got)
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if buf.Len() != 0 {
		t.Fatalf("health probe logged at info level: %s", buf.String())
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, slog.LevelInfo)

	h := Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("ledger corrupted")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/market/tokens/1/purchase", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON body, got %q", ct)
	}
	entry := lastEntry(t, &buf)
	if entry["error"] != "ledger corrupted" || entry["stack"] == nil {
		t.Fatalf("unexpected panic log: %v", entry)
	}
}

func TestRecovery_AbortHandler(t *testing.T) {
	h := Recovery(newLogger(&bytes.Buffer{}, slog.LevelInfo))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler { //nolint:errorlint
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
