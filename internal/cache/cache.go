// Package cache provides the byte-oriented TTL cache behind the typed
// result store. Two backends exist: an in-memory map for development and
// tests, and Redis for deployments that share a cache across restarts.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the contract both backends satisfy.
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for the given TTL, overwriting any prior
	// entry. A TTL <= 0 stores the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key if present.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry regardless of TTL.
	Clear(ctx context.Context) error
}
