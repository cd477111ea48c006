// Package cache stores raw provider responses so repeated lookups of the same
// movie, search or list do not hit TMDB or OMDb again.
package cache

import (
	"fmt"
	"time"
)

// Cache defines the interface for caching provider responses.
type Cache interface {
	// Get retrieves data from the cache by key.
	// Returns the data and true if found and not expired, otherwise nil and false.
	Get(key string) ([]byte, bool)

	// Set stores data in the cache with the given key and TTL.
	Set(key string, data []byte, ttl time.Duration) error

	// Clear removes all entries from the cache.
	Clear() error

	// Close closes the cache and releases resources.
	Close() error
}

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates a cache. path is only used by the sqlite backend, size only by memory.
func Open(backend, path string, size int, ttl time.Duration) (Cache, error) {
	switch backend {
	case "", BackendSQLite:
		return NewSQLiteCache(path)
	case BackendMemory:
		return NewMemoryCache(size, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
