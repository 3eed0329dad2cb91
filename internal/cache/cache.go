// Package cache keeps rendered trending feeds in Redis for a short time.
// A nil *Cache is valid and caches nothing.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/config"
)

const keyPrefix = "shortsradar:trending"

// Cache stores feed responses by key with a fixed TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis when caching is enabled. A disabled cache yields
// nil; an unreachable server is an error.
func New(ctx context.Context, cfg *config.Config) (*Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Cache.Addr,
		DB:          cfg.Cache.DB,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Cache.Addr, err)
	}

	log.Printf("Feed cache enabled (%s, ttl %s)", cfg.Cache.Addr, cfg.CacheTTL())
	return &Cache{rdb: rdb, ttl: cfg.CacheTTL()}, nil
}

// Key builds the cache key of one feed page.
func Key(minViral, offset, limit int) string {
	return fmt.Sprintf("%s:%d:%d:%d", keyPrefix, minViral, offset, limit)
}

// Get returns the cached value of key. Misses and Redis errors both report
// ok=false; errors are logged.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Cache read failed for %s: %v", key, err)
		}
		return nil, false
	}
	return val, true
}

// Set stores value under key. Failures are logged and otherwise ignored.
func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		log.Printf("Cache write failed for %s: %v", key, err)
	}
}

// Invalidate drops every cached feed page, e.g. after a refresh.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("Cache scan failed: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Cache invalidation failed: %v", err)
	}
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
