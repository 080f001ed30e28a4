// internal/infrastructure/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrCacheMiss is returned by Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// loadTimeout bounds a collapsed origin load once it is detached from its callers
const loadTimeout = 15 * time.Second

// Cache stores JSON snapshots of public commerce reads
type Cache struct {
	client *redis.Client
	prefix string
	sfg    singleflight.Group // collapses concurrent loads of the same key
	logger *logrus.Entry
}

// New creates a cache. A nil client disables caching but keeps load collapsing.
func New(client *redis.Client, prefix string, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		logger: logger.WithField("component", "cache"),
	}
}

// Get decodes the cached value for key into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if c.client == nil {
		return ErrCacheMiss
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal cached value failed: %w", err)
	}
	return nil
}

// Set stores value under key for ttl
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes key
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *Cache) key(key string) string {
	return c.prefix + ":" + key
}

// Fetch returns the cached value for key or calls load and caches the result.
// A ttl of zero bypasses the cache entirely. Cache errors never fail the read.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil || ttl <= 0 {
		return load(ctx)
	}

	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.WithError(err).WithField("key", key).Warn("Cache read failed, loading from origin")
	}

	// The shared load must not die with whichever caller started it
	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(loadCtx, key, value, ttl); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		}
		return value, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
