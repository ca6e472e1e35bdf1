// Package middleware provides HTTP middleware for ProposalForge.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/ProposalForge/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestID is HTTP middleware that propagates X-Request-ID from the request
// header or generates a new UUID. Malformed ids are replaced. The id is
// stored in the context and echoed on the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validRequestID accepts ASCII letters, digits and "-_.:" only.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := range len(id) {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == ':':
		default:
			return false
		}
	}
	return true
}
