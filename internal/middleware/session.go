package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/skylight-social/skylight/internal/session"
)

// SessionCookieName is the cookie carrying the anonymous session id.
const SessionCookieName = "skylight_session"

// sessionIDKey is the context key for the session id.
type sessionIDKey struct{}

// Session attaches an interaction session to every request. A valid cookie
// is passed through; a missing or expired one gets a fresh session with an
// empty ledger. Store failures degrade to no session rather than failing
// the request.
func Session(store session.Store, logger *slog.Logger, cookieTTL time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				ok, err := store.Valid(r.Context(), cookie.Value)
				if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
					logger.Warn("session lookup failed", "error", err,
						"request_id", GetRequestID(r.Context()))
					next.ServeHTTP(w, r)
					return
				}
				if ok {
					id = cookie.Value
				}
			}

			if id == "" {
				id = uuid.New().String()
				ledger := session.NewLedger(time.Now().UTC())
				if err := store.Create(r.Context(), id, ledger); err != nil {
					logger.Warn("session create failed", "error", err,
						"request_id", GetRequestID(r.Context()))
					next.ServeHTTP(w, r)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(SetSessionID(r.Context(), id)))
		})
	}
}

// SetSessionID returns a context carrying the session id.
func SetSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// GetSessionID returns the session id from context, or "" when the request
// has no usable session.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}
