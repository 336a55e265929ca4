// Package cache provides byte-level caching for analysis results and parsed
// model text, with file, redis, and null backends behind one interface.
//
// Analyses are pure functions of (model text, operation, parameters), so the
// cache key is a hash over exactly those inputs; see keys.go.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
