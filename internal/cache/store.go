// Package cache provides the short-TTL freshness cache that deduplicates
// identical upstream fetches within the freshness window.
package cache

// Store is the get/set contract the fetch layer depends on. Implementations
// carry a fixed TTL; callers never choose expiry per entry.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
