package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/ProposalForge/internal/port/cache"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyBody   = 1 << 20 // 1 MB
	maxIdempotencyKeyLen = 255
)

// idempotencyEntry stores a completed 2xx response and the digest of the
// request body that produced it.
type idempotencyEntry struct {
	BodyHash    string `json:"body_hash"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Location    string `json:"location,omitempty"`
	Body        []byte `json:"body"`
}

// Idempotency returns middleware that replays the stored response of a
// POST/PUT carrying an Idempotency-Key header. Keys are scoped to the caller,
// the location and the route, so two agencies never share a replay. Reusing
// a key with a different request body is rejected with 422. Only successful
// responses are stored; failures may be retried with the same key. Cache
// errors degrade to normal processing.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(HeaderIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				writeError(w, http.StatusBadRequest, "validation_failed", "Idempotency-Key too long")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBody+1))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
				return
			}
			if len(body) > maxIdempotencyBody {
				writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)
			bodyHash := hex.EncodeToString(sum[:])

			ctx := r.Context()
			cacheKey := idempotencyCacheKey(r, key)

			data, found, err := c.Get(ctx, cacheKey)
			switch {
			case err != nil:
				slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
			case found:
				var cached idempotencyEntry
				if err := json.Unmarshal(data, &cached); err == nil {
					if cached.BodyHash != bodyHash {
						writeError(w, http.StatusUnprocessableEntity, "idempotency_key_reused",
							"Idempotency-Key was already used with a different request body")
						return
					}
					replay(w, &cached)
					return
				}
				slog.WarnContext(ctx, "idempotency: corrupt cache entry", "key", cacheKey)
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode > 299 || rec.body.Len() > maxIdempotencyBody {
				return
			}
			entry := idempotencyEntry{
				BodyHash:    bodyHash,
				StatusCode:  rec.statusCode,
				ContentType: w.Header().Get("Content-Type"),
				Location:    w.Header().Get("Location"),
				Body:        rec.body.Bytes(),
			}
			out, err := json.Marshal(entry)
			if err != nil {
				return
			}
			if err := c.Set(ctx, cacheKey, out, ttl); err != nil {
				slog.WarnContext(ctx, "idempotency: failed to store response", "key", cacheKey, "error", err)
			}
		})
	}
}

// idempotencyCacheKey hashes the client key together with its scope.
func idempotencyCacheKey(r *http.Request, key string) string {
	var callerID string
	if c := CallerFromContext(r.Context()); c != nil {
		callerID = c.ID
	}
	h := sha256.New()
	for _, part := range []string{callerID, LocationFromContext(r.Context()), r.Method, r.URL.Path, key} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cache.Key("idempotency", hex.EncodeToString(h.Sum(nil)))
}

func replay(w http.ResponseWriter, e *idempotencyEntry) {
	if e.ContentType != "" {
		w.Header().Set("Content-Type", e.ContentType)
	}
	if e.Location != "" {
		w.Header().Set("Location", e.Location)
	}
	w.Header().Set(headerReplayed, "true")
	w.WriteHeader(e.StatusCode)
	_, _ = w.Write(e.Body)
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
