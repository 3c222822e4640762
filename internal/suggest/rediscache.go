package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roomshare_backend/internal/geocode"
	"roomshare_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const redisVersionKey = "suggest:ver"

// RedisCache is a Redis-backed suggestion cache shared across instances.
// Clear bumps a namespace version instead of scanning keys, so a reset is
// one INCR and stale entries age out through their TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewRedisCache creates a Redis-backed cache with the given entry TTL.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *RedisCache) entryKey(ctx context.Context, key string) (string, error) {
	ver, err := c.rdb.Get(ctx, redisVersionKey).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return "", err
		}
		// Absent version reads as 0 so the first Clear (INCR -> 1)
		// really moves the namespace.
		ver = 0
	}
	return fmt.Sprintf("suggest:v%d:%s", ver, key), nil
}

// Get implements Cache. Redis errors degrade to a miss; the cache must
// never make a lookup fail.
func (c *RedisCache) Get(ctx context.Context, key string) ([]geocode.Suggestion, bool) {
	entryKey, err := c.entryKey(ctx, key)
	if err != nil {
		c.warn("redis cache get failed", err)
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, entryKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("redis cache get failed", err)
		}
		return nil, false
	}

	var suggestions []geocode.Suggestion
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		c.warn("redis cache entry corrupt", err)
		return nil, false
	}
	return suggestions, true
}

// Set implements Cache. Failures are logged and dropped.
func (c *RedisCache) Set(ctx context.Context, key string, suggestions []geocode.Suggestion) {
	entryKey, err := c.entryKey(ctx, key)
	if err != nil {
		c.warn("redis cache set failed", err)
		return
	}

	raw, err := json.Marshal(suggestions)
	if err != nil {
		c.warn("redis cache marshal failed", err)
		return
	}

	if err := c.rdb.Set(ctx, entryKey, raw, c.ttl).Err(); err != nil {
		c.warn("redis cache set failed", err)
	}
}

// Clear implements Cache by moving every reader to a fresh namespace.
func (c *RedisCache) Clear(ctx context.Context) error {
	return c.rdb.Incr(ctx, redisVersionKey).Err()
}

func (c *RedisCache) warn(msg string, err error) {
	if c.log != nil {
		c.log.Warn(msg, "error", err.Error())
	}
}

var _ Cache = (*RedisCache)(nil)
