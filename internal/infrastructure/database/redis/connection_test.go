package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sweets-storefront/internal/config"
	"github.com/your-org/sweets-storefront/internal/pkg/logger"
)

func TestNewConnection(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: mr.Port(), PoolSize: 2}}

	rdb, err := NewConnection(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer rdb.Close()

	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewConnection_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: mr.Port()}}
	mr.Close()

	_, err := NewConnection(context.Background(), cfg, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestOptions(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{Host: "cache", Port: "6380", Password: "pw", DB: 3, PoolSize: 7}}

	opts := Options(cfg)

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
}
