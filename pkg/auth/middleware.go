package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"github.com/ghuser/nftmarket/pkg/httpx"
	"github.com/ghuser/nftmarket/pkg/logger"
	pkgvalidator "github.com/ghuser/nftmarket/pkg/validator"
)

const (
	sessionName      = "nftmarket_session"
	sessionCallerKey = "caller_address"

	// CallerHeader carries the caller address set by an authenticating gateway.
	CallerHeader = httpx.CallerHeaderName
)

// NormalizeCaller validates a 0x-prefixed 20-byte hex address and returns it lowercased.
func NormalizeCaller(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if err := pkgvalidator.Var(addr, "required,eth_addr"); err != nil {
		return "", fmt.Errorf("invalid caller address %q", addr)
	}
	return strings.ToLower(addr), nil
}

// RequireCaller is a chi middleware that resolves the calling account and injects it into the request context.
// When trustHeader is set the X-Caller-Address header from the fronting gateway wins; otherwise the
// address is read from the session cookie. Returns 401 Unauthorized if neither yields a valid address.
//
// After this middleware, handlers can safely call auth.CallerFromCtx(r.Context()).
func RequireCaller(store sessions.Store, trustHeader bool, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, source := "", "session"
			if trustHeader {
				raw, source = r.Header.Get(CallerHeader), "header"
			}
			if raw == "" && store != nil {
				session, err := store.Get(r, sessionName)
				if err != nil {
					log.WarnContext(r.Context(), "invalid session cookie", "error", err)
					httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
					return
				}
				raw, _ = session.Values[sessionCallerKey].(string)
				source = "session"
			}
			if raw == "" {
				log.WarnContext(r.Context(), "request without caller identity")
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}

			caller, err := NormalizeCaller(raw)
			if err != nil {
				log.WarnContext(r.Context(), "invalid caller address", "source", source, "error", err)
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid caller identity"})
				return
			}

			ctx := logger.WithAttrs(WithCaller(r.Context(), caller), "caller", caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SaveCaller binds caller to the session cookie of the response. It is called
// by POST /market/session for an identity the gateway already vouched for, and
// by whatever else authenticates the account (for example a signed-message login).
func SaveCaller(store sessions.Store, w http.ResponseWriter, r *http.Request, caller string) error {
	normalized, err := NormalizeCaller(caller)
	if err != nil {
		return err
	}
	session, err := store.Get(r, sessionName)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	session.Values[sessionCallerKey] = normalized
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ClearCaller ends the session of the request and expires its cookie.
func ClearCaller(store sessions.Store, w http.ResponseWriter, r *http.Request) error {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
