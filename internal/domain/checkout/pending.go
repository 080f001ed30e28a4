// internal/domain/checkout/pending.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// ErrNoPending is returned when no checkout awaits payment for a session
var ErrNoPending = errors.New("no pending checkout")

// Pending is a checkout waiting on the payment widget. It outlives the
// in-memory shopper so a late widget callback can still be verified.
type Pending struct {
	Subject   string          `json:"subject,omitempty"`
	CartID    int             `json:"cart_id"`
	AddressID int             `json:"address_id,omitempty"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// PendingStore keeps pending checkouts per browser session
type PendingStore interface {
	LoadPending(ctx context.Context, sessionID string) (Pending, error)
	SavePending(ctx context.Context, sessionID string, p Pending) error
	DeletePending(ctx context.Context, sessionID string) error
}

// RedisPendingStore keeps pending checkouts in Redis with a TTL
type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPendingStore creates a Redis-backed pending checkout store
func NewRedisPendingStore(client *redis.Client, ttl time.Duration) *RedisPendingStore {
	return &RedisPendingStore{client: client, ttl: ttl}
}

// LoadPending returns the stored checkout or ErrNoPending
func (s *RedisPendingStore) LoadPending(ctx context.Context, sessionID string) (Pending, error) {
	data, err := s.client.Get(ctx, pendingKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Pending{}, ErrNoPending
	}
	if err != nil {
		return Pending{}, fmt.Errorf("redis get failed: %w", err)
	}

	var p Pending
	if err := json.Unmarshal(data, &p); err != nil {
		return Pending{}, fmt.Errorf("unmarshal pending checkout failed: %w", err)
	}
	return p, nil
}

// SavePending stores p, refreshing the TTL
func (s *RedisPendingStore) SavePending(ctx context.Context, sessionID string, p Pending) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending checkout failed: %w", err)
	}
	if err := s.client.Set(ctx, pendingKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// DeletePending removes the stored checkout
func (s *RedisPendingStore) DeletePending(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, pendingKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func pendingKey(sessionID string) string {
	return fmt.Sprintf("storefront:checkout:%s", sessionID)
}
