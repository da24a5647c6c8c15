package telemetry

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/ghuser/nftmarket/pkg/config"
)

// Request headers that identify the caller and never leave the process.
var scrubbedHeaders = []string{"Cookie", "Authorization", "X-Caller-Address"}

// SetupSentry initializes the Sentry SDK. No-ops if DSN is empty.
func SetupSentry(cfg *config.Config) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.ServiceName + "@" + cfg.ServiceVersion,
		TracesSampleRate: sampleRatio(cfg.TraceSampleRatio),
		BeforeSend:       scrubEvent,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// scrubEvent removes caller identity and session cookies from captured requests.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request == nil {
		return event
	}
	event.Request.Cookies = ""
	for name := range event.Request.Headers {
		for _, scrubbed := range scrubbedHeaders {
			if strings.EqualFold(name, scrubbed) {
				event.Request.Headers[name] = "[scrubbed]"
			}
		}
	}
	return event
}

// SentryFlush flushes buffered events before process exit.
func SentryFlush() {
	sentry.Flush(2 * time.Second)
}

// SentryMiddleware returns a net/http middleware that captures panics and errors.
// Repanic: true so the outer Recovery middleware still handles the 500 response.
func SentryMiddleware() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return h.Handle
}
