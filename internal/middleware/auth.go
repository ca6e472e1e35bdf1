package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
	"github.com/Strob0t/ProposalForge/internal/logger"
)

type callerCtxKey struct{}

// Verifier turns a bearer token into a caller. *service.AuthService
// implements it.
type Verifier interface {
	Verify(token string) (*user.Caller, error)
	DefaultCaller() *user.Caller
}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// Auth returns middleware that validates the Authorization bearer token.
// When authEnabled is false, the verifier's default admin is injected.
func Auth(v Verifier, authEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authEnabled {
				next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), v.DefaultCaller())))
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "authorization required")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid authorization header")
				return
			}

			caller, err := v.Verify(token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					slog.DebugContext(r.Context(), "token rejected", "error", err)
					writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
					return
				}
				// Signing secret unavailable: the caller is not at fault.
				slog.ErrorContext(r.Context(), "token verification failed", "error", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller returns a copy of ctx carrying the authenticated caller. The
// caller id is also attached to log records.
func WithCaller(ctx context.Context, c *user.Caller) context.Context {
	if c != nil {
		ctx = logger.WithCaller(ctx, c.ID)
	}
	return context.WithValue(ctx, callerCtxKey{}, c)
}

// CallerFromContext returns the authenticated caller, or nil.
func CallerFromContext(ctx context.Context) *user.Caller {
	c, _ := ctx.Value(callerCtxKey{}).(*user.Caller)
	return c
}
