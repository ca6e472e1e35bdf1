// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is the port interface for key-value caching. A miss is reported as
// found=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key joins namespace and id parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
