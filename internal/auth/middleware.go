package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/httputil"
)

type ctxKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by Middleware.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's Principal in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			httputil.Unauthorized(w, "authorization header required")
			return
		}
		p, err := m.Parse(token)
		if err != nil {
			msg := "invalid or expired token"
			if errors.Is(err, ErrRevoked) {
				msg = "session has ended, please log in again"
			}
			httputil.Unauthorized(w, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Require rejects callers that lack cap. It must run after Middleware.
func Require(cap domain.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				httputil.Unauthorized(w, "authentication required")
				return
			}
			if !p.Can(cap) {
				httputil.Forbidden(w, "your role does not allow this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
