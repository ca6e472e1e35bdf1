package middleware

import (
	"net/http"

	"github.com/Strob0t/ProposalForge/internal/domain/user"
)

// RequireRole returns middleware that restricts access to callers with one
// of the given roles. Agency-level permission checks happen in the services;
// this gate is for routes that are admin-only regardless of preferences.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	allowed := make(map[user.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := CallerFromContext(r.Context())
			if c == nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "authorization required")
				return
			}

			if !allowed[c.Role] {
				writeError(w, http.StatusForbidden, "forbidden", "caller role "+string(c.Role)+" may not perform this operation")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
