package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
)

// DefaultCachePrefix namespaces the dashboard cache keys.
const DefaultCachePrefix = "hgraph:cache:"

// Compile-time check: *RedisCache implements batches.Cache.
var _ batches.Cache = (*RedisCache)(nil)

// RedisCache keeps JSON-encoded dashboard aggregates in Redis with a TTL.
// Entries live under <prefix>v<generation>:<key>; the generation counter is
// stored at <prefix>generation.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a RedisCache whose entries expire after ttl.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: DefaultCachePrefix}
}

func (c *RedisCache) generationKey() string { return c.prefix + "generation" }

func (c *RedisCache) entryKey(gen int64, key string) string {
	return c.prefix + "v" + strconv.FormatInt(gen, 10) + ":" + key
}

// Generation returns the current generation, 0 before the first Invalidate.
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cache generation: %w", err)
	}
	return gen, nil
}

// Get decodes the entry under key for gen into dst.
func (c *RedisCache) Get(ctx context.Context, gen int64, key string, dst any) (bool, error) {
	val, err := c.rdb.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %q: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for gen.
func (c *RedisCache) Set(ctx context.Context, gen int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	if err := c.rdb.Set(ctx, c.entryKey(gen, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Invalidate bumps the generation, then deletes the entries it orphaned.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	iter := c.rdb.Scan(ctx, 0, c.prefix+"v*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}
