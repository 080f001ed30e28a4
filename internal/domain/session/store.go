// internal/domain/session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when nothing is stored for a session id
var ErrNoSession = errors.New("session not found")

// Store persists the identity provider's token per browser session.
// Carts are never stored.
type Store interface {
	Load(ctx context.Context, sessionID string) (Identity, error)
	Save(ctx context.Context, sessionID string, identity Identity) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore keeps identities in Redis with a TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load returns the stored identity or ErrNoSession
func (s *RedisStore) Load(ctx context.Context, sessionID string) (Identity, error) {
	data, err := s.client.Get(ctx, storeKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrNoSession
	}
	if err != nil {
		return Identity{}, fmt.Errorf("redis get failed: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return Identity{}, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return identity, nil
}

// Save stores identity, refreshing the TTL
func (s *RedisStore) Save(ctx context.Context, sessionID string, identity Identity) error {
	if identity.Empty() {
		return s.Delete(ctx, sessionID)
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := s.client.Set(ctx, storeKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes the stored identity
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, storeKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storeKey(sessionID string) string {
	return fmt.Sprintf("storefront:session:%s", sessionID)
}
