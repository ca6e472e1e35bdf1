package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Strob0t/ProposalForge/internal/config"
)

const defaultMaxBuckets = 100000

// RateLimiter is per-IP token bucket rate limiting middleware.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64 // tokens per second
	burst      float64
	maxBuckets int
	maxIdle    time.Duration
	interval   time.Duration
	now        func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// take refills b for the time elapsed since it was last seen and consumes
// one token when available. It returns the seconds until a token frees up
// when the request is rejected.
func (b *bucket) take(now time.Time, rate, burst float64) (allowed bool, wait float64) {
	b.tokens = math.Min(burst, b.tokens+now.Sub(b.lastSeen).Seconds()*rate)
	b.lastSeen = now
	if b.tokens < 1 {
		return false, (1 - b.tokens) / rate
	}
	b.tokens--
	return true, 0
}

// NewRateLimiter creates a rate limiter from the rate config section.
func NewRateLimiter(cfg config.Rate) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       cfg.RequestsPerSecond,
		burst:      float64(cfg.Burst),
		maxBuckets: defaultMaxBuckets,
		maxIdle:    cfg.MaxIdleTime,
		interval:   cfg.CleanupInterval,
		now:        time.Now,
	}
}

// Handler returns HTTP middleware that enforces per-IP rate limiting.
// Health probes are never limited.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		remaining, wait, allowed := rl.allow(realIP(r))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait))))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow checks whether a request from ip is allowed.
func (rl *RateLimiter) allow(ip string) (remaining int, wait float64, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[ip]
	if !ok {
		if len(rl.buckets) >= rl.maxBuckets {
			return 0, 1 / rl.rate, false
		}
		b = &bucket{tokens: rl.burst, lastSeen: now}
		rl.buckets[ip] = b
	}

	allowed, wait = b.take(now, rl.rate, rl.burst)
	return int(b.tokens), wait, allowed
}

// Run evicts idle buckets every cleanup interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) error {
	if rl.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.maxIdle)
	for ip, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// Len returns the number of tracked IP buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// realIP extracts the client IP from RemoteAddr.
// Proxy headers (X-Forwarded-For, X-Real-Ip) are NOT trusted because
// they can be spoofed to bypass rate limiting.
func realIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
