package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/nftmarket/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

type health struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func TestHealthHandler(t *testing.T) {
	down := &stubChecker{err: errors.New("connection refused")}
	var typedNil *stubChecker

	tests := []struct {
		name       string
		checks     httpx.HealthChecks
		wantCode   int
		wantStatus string
		wantParts  map[string]string
	}{
		{
			name: "all healthy",
			checks: httpx.HealthChecks{
				"database": &stubChecker{}, "redis": &stubChecker{}, "event_bus": &stubChecker{}, "temporal": &stubChecker{},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantParts:  map[string]string{"database": "ok", "redis": "ok", "event_bus": "ok", "temporal": "ok"},
		},
		{
			name:       "database down",
			checks:     httpx.HealthChecks{"database": down, "redis": &stubChecker{}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantParts:  map[string]string{"database": "unreachable", "redis": "ok"},
		},
		{
			name:       "optional components disabled",
			checks:     httpx.HealthChecks{"database": &stubChecker{}, "redis": nil, "temporal": typedNil},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantParts:  map[string]string{"database": "ok", "redis": "disabled", "temporal": "disabled"},
		},
		{
			name:       "disabled does not hide a failure",
			checks:     httpx.HealthChecks{"redis": nil, "temporal": down},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantParts:  map[string]string{"redis": "disabled", "temporal": "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			httpx.HealthHandler(tt.checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var resp health
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", resp.Status, tt.wantStatus)
			}
			for name, want := range tt.wantParts {
				if got := resp.Components[name]; got != want {
					t.Errorf("%s: got %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestHealthHandler_ContentType(t *testing.T) {
	rr := httptest.NewRecorder()
	httpx.HealthHandler(httpx.HealthChecks{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
}
