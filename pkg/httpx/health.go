package httpx

import (
	"context"
	"net/http"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (database.Database, cache.RedisClient, events.EventBus and
// workflows.TemporalClient all do).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks maps a component name to its checker. A nil checker is
// reported as "disabled" and does not degrade the status.
type HealthChecks map[string]HealthChecker

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

const healthProbeTimeout = 2 * time.Second

// HealthHandler probes every component concurrently and answers 503 when any
// enabled component is unreachable.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Components: make(map[string]string, len(checks))}
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for name, c := range checks {
			if isNil(c) {
				resp.Components[name] = "disabled"
				continue
			}
			g.Go(func() error {
				state := "ok"
				if err := c.Ping(gctx); err != nil {
					state = "unreachable"
				}
				mu.Lock()
				resp.Components[name] = state
				if state != "ok" {
					resp.Status = "degraded"
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}

// isNil also catches typed nil pointers stored in the interface.
func isNil(c HealthChecker) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
