// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/config"
)

const connectTimeout = 5 * time.Second

// Options maps the Redis config section to client options. Session reads sit
// on the request path, so read and write timeouts stay short.
func Options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  connectTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolTimeout:  2 * time.Second,
	}
}

// NewConnection opens the client shared by the session store, the rate limiter
// and the catalog cache. It fails unless Redis answers a ping.
func NewConnection(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.GetRedisAddr(), err)
	}

	logger.WithFields(logrus.Fields{
		"addr": cfg.GetRedisAddr(),
		"db":   cfg.Redis.DB,
	}).Info("Redis connection established")
	return rdb, nil
}
