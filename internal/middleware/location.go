package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Strob0t/ProposalForge/internal/logger"
)

// HeaderLocationID carries the host platform's location id, which is the
// external key of an agency.
const HeaderLocationID = "X-Location-ID"

type locationCtxKey struct{}

// Location stores the X-Location-ID header in the request context. A missing
// header is not an error here; handlers decide whether they need it.
func Location(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := strings.TrimSpace(r.Header.Get(HeaderLocationID))
		if loc == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithLocation(r.Context(), loc)))
	})
}

// WithLocation returns a copy of ctx scoped to the given location id.
func WithLocation(ctx context.Context, locationID string) context.Context {
	return context.WithValue(logger.WithLocation(ctx, locationID), locationCtxKey{}, locationID)
}

// LocationFromContext returns the location id stored in ctx, or "".
func LocationFromContext(ctx context.Context) string {
	loc, _ := ctx.Value(locationCtxKey{}).(string)
	return loc
}
