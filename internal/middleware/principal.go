package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/skylight-social/skylight/internal/principal"
)

// principalKey is the context key for the decoded principal.
type principalKey struct{}

// TokenValidator turns a bearer token into a principal.
type TokenValidator interface {
	ValidateToken(token string) (*principal.Principal, error)
}

// Principal decodes an optional Authorization bearer token into the request
// context. Anonymous requests pass through with no principal; invalid tokens
// are rejected so a client never silently loses its identity.
func Principal(validator TokenValidator, logger interface {
	Warn(msg string, args ...any)
}) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":true,"message":"malformed authorization header"}`))
				return
			}
			p, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("rejected bearer token", "request_id", GetRequestID(r.Context()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":true,"message":"invalid or expired token"}`))
				return
			}
			ctx := SetPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetPrincipal stores the decoded principal in the context, alongside its id
// for the access log.
func SetPrincipal(ctx context.Context, p *principal.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return SetPrincipalID(ctx, p.ID)
}

// GetPrincipal returns the decoded principal, or nil for anonymous requests.
func GetPrincipal(ctx context.Context) *principal.Principal {
	if p, ok := ctx.Value(principalKey{}).(*principal.Principal); ok {
		return p
	}
	return nil
}
