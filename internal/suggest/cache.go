package suggest

import (
	"context"
	"time"

	"roomshare_backend/internal/geocode"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores suggestion lists keyed by the case-insensitively normalized
// query (sanitize.NormalizeKey). Implementations must be safe for
// concurrent use. Clear is the explicit process-wide reset; there is no
// per-key invalidation.
type Cache interface {
	Get(ctx context.Context, key string) ([]geocode.Suggestion, bool)
	Set(ctx context.Context, key string, suggestions []geocode.Suggestion)
	Clear(ctx context.Context) error
}

// LRUCache is an in-process bounded cache with TTL eviction. The bound is
// deliberate: the original component cached per-session without eviction,
// which is a resource leak on a long-lived server.
type LRUCache struct {
	lru *expirable.LRU[string, []geocode.Suggestion]
}

// NewLRUCache creates a cache holding at most size entries, each expiring
// after ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 512
	}
	return &LRUCache{
		lru: expirable.NewLRU[string, []geocode.Suggestion](size, nil, ttl),
	}
}

// Get implements Cache.
func (c *LRUCache) Get(_ context.Context, key string) ([]geocode.Suggestion, bool) {
	return c.lru.Get(key)
}

// Set implements Cache.
func (c *LRUCache) Set(_ context.Context, key string, suggestions []geocode.Suggestion) {
	c.lru.Add(key, suggestions)
}

// Clear implements Cache.
func (c *LRUCache) Clear(_ context.Context) error {
	c.lru.Purge()
	return nil
}

var _ Cache = (*LRUCache)(nil)
