package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/ghuser/nftmarket/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:      "nftmarket-test",
		ServiceVersion:   "test",
		Environment:      config.EnvTesting,
		TraceSampleRatio: 1,
	}
}

func TestSetup_ExposesMarketMetrics(t *testing.T) {
	ctx := context.Background()
	shutdown, handler, err := Setup(ctx, testConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(ctx) //nolint:errcheck

	ops, err := otel.Meter("test").Int64Counter("market.operations")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	ops.Add(ctx, 1, metric.WithAttributes())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"market_operations", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSetup_InstallsPropagator(t *testing.T) {
	ctx := context.Background()
	shutdown, _, err := Setup(ctx, testConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	fields := otel.GetTextMapPropagator().Fields()
	if !contains(fields, "traceparent") || !contains(fields, "baggage") {
		t.Fatalf("expected traceparent and baggage fields, got %v", fields)
	}
}

func TestSampleRatio(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, 0},
		{0.25, 0.25},
		{3, 1},
	}
	for _, tt := range tests {
		if got := sampleRatio(tt.in); got != tt.want {
			t.Errorf("sampleRatio(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScrubEvent(t *testing.T) {
	event := &sentry.Event{Request: &sentry.Request{
		Cookies: "market_session=abc",
		Headers: map[string]string{
			"x-caller-address": "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
			"Content-Type":     "application/json",
		},
	}}
	got := scrubEvent(event, nil)
	if got.Request.Cookies != "" {
		t.Errorf("cookies not scrubbed: %q", got.Request.Cookies)
	}
	if got.Request.Headers["x-caller-address"] != "[scrubbed]" {
		t.Errorf("caller header not scrubbed: %q", got.Request.Headers["x-caller-address"])
	}
	if got.Request.Headers["Content-Type"] != "application/json" {
		t.Errorf("unrelated header changed: %q", got.Request.Headers["Content-Type"])
	}

	if scrubEvent(&sentry.Event{}, nil) == nil {
		t.Error("events without request must be kept")
	}
}

func TestSetupSentry_EmptyDSN(t *testing.T) {
	if err := SetupSentry(testConfig()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
