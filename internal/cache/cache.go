// Package cache is a thin Redis layer for read-heavy aggregate queries.
// Every method is safe on a nil *Cache, so callers can run without Redis
// configured and pay only the database cost.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds staleness for cached aggregates that are not
// explicitly invalidated.
const DefaultTTL = 5 * time.Minute

// Cache wraps a Redis client with JSON encoding and tenant-prefixed keys.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis. An empty addr disables caching and returns nil.
func New(addr string, dbNum int) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr, DB: dbNum}),
		ttl: DefaultTTL,
	}
}

// Ping verifies connectivity. A nil cache always reports healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping: %w", err)
	}
	return nil
}

// Key builds a tenant-prefixed cache key.
func Key(tenantID, kind string, parts ...string) string {
	key := "coachdesk:" + tenantID + ":" + kind
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// GetJSON loads a cached value into dest. Returns false on a miss, on a
// nil cache, or on any Redis error; misses are never fatal.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON stores a value with the default TTL. Errors are swallowed; a
// failed cache write only means the next read hits the database.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, raw, c.ttl)
}

// Invalidate drops every key matching the tenant-scoped pattern.
func (c *Cache) Invalidate(ctx context.Context, tenantID, kind string) {
	if c == nil {
		return
	}
	pattern := Key(tenantID, kind) + "*"
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		c.rdb.Del(ctx, iter.Val())
	}
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
