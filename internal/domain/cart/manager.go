// internal/domain/cart/manager.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/domain/notification"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

var (
	// ErrAddInFlight is returned when an add is requested while another one is outstanding
	ErrAddInFlight = errors.New("an add to cart request is already in progress")
	// ErrNotAuthenticated is returned when no access token is present
	ErrNotAuthenticated = errors.New("sign in required")
)

// AddState is the add-to-cart state of a manager
type AddState int32

const (
	AddIdle AddState = iota
	AddAdding
)

func (s AddState) String() string {
	if s == AddAdding {
		return "adding"
	}
	return "idle"
}

// Entity references something that can be added to a cart
type Entity struct {
	ContentType string
	ObjectID    int
	Title       string
}

// API is the part of the commerce client the cart needs
type API interface {
	ListCarts(ctx context.Context, token, status string) ([]commerce.Cart, error)
	AddToCart(ctx context.Context, token string, req commerce.AddToCartRequest) error
}

// TokenSource yields the shopper's current access token
type TokenSource interface {
	Token() string
}

// Manager holds one shopper's view of their draft carts and mediates all cart mutations
type Manager struct {
	api      API
	tokens   TokenSource
	notifier notification.Notifier
	logger   *logrus.Entry

	state atomic.Int32

	mu         sync.RWMutex
	carts      []commerce.Cart
	itemCount  int
	generation uint64
}

// NewManager creates a cart manager
func NewManager(api API, tokens TokenSource, notifier notification.Notifier, logger *logrus.Entry) *Manager {
	return &Manager{
		api:      api,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.WithField("component", "cart"),
	}
}

// FetchCart reloads the draft carts. On failure the previous state is kept.
func (m *Manager) FetchCart(ctx context.Context) error {
	token := m.tokens.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	m.mu.RLock()
	gen := m.generation
	m.mu.RUnlock()

	carts, err := m.api.ListCarts(ctx, token, commerce.CartStatusDraft)
	if err != nil {
		m.logger.WithError(err).Error("Failed to fetch cart")
		return fmt.Errorf("fetch cart: %w", err)
	}

	// The caller went away, drop the late response
	if err := ctx.Err(); err != nil {
		m.logger.Debug("Dropping cart response for cancelled request")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		m.logger.Debug("Dropping cart response fetched before reset")
		return nil
	}
	m.carts = carts
	m.itemCount = countItems(carts)
	return nil
}

// AddToCart posts entity to the draft cart and resyncs before returning.
// Only one add runs at a time; a concurrent call returns ErrAddInFlight
// without a request or a toast.
func (m *Manager) AddToCart(ctx context.Context, entity Entity, showNotification bool) error {
	if !m.state.CompareAndSwap(int32(AddIdle), int32(AddAdding)) {
		return ErrAddInFlight
	}
	defer m.state.Store(int32(AddIdle))

	token := m.tokens.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	log := m.logger.WithFields(logrus.Fields{
		"content_type": entity.ContentType,
		"object_id":    entity.ObjectID,
	})

	err := m.api.AddToCart(ctx, token, commerce.AddToCartRequest{
		ContentType: entity.ContentType,
		ObjectID:    entity.ObjectID,
	})
	if err != nil {
		log.WithError(err).Error("Failed to add to cart")
		if showNotification {
			m.notifier.Show(notification.KindError, fmt.Sprintf("Could not add %s to your cart. Please try again.", displayName(entity)), "Cart", 0)
		}
		return fmt.Errorf("add to cart: %w", err)
	}

	if err := m.FetchCart(ctx); err != nil {
		log.WithError(err).Warn("Cart resync after add failed")
	}

	log.Info("Added to cart")
	if showNotification {
		m.notifier.Show(notification.KindSuccess, fmt.Sprintf("%s added to your cart", displayName(entity)), "Cart", 0)
	}
	return nil
}

// Carts returns a copy of the cached draft carts
func (m *Manager) Carts() []commerce.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commerce.Cart, len(m.carts))
	copy(out, m.carts)
	return out
}

// DraftCart returns the first cached draft cart
func (m *Manager) DraftCart() (commerce.Cart, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.carts {
		if c.Status == "" || c.Status == commerce.CartStatusDraft {
			return c, true
		}
	}
	return commerce.Cart{}, false
}

// ItemCount is the sum of line item counts across all cached carts
func (m *Manager) ItemCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.itemCount
}

// AddState reports whether an add is outstanding
func (m *Manager) AddState() AddState {
	return AddState(m.state.Load())
}

// Summary returns display totals for the cached carts
func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Summarize(m.carts)
}

// Reset forgets all cached state. Fetches started before the reset are discarded.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = nil
	m.itemCount = 0
	m.generation++
}

func countItems(carts []commerce.Cart) int {
	n := 0
	for _, c := range carts {
		for _, li := range c.Items {
			n += li.Count
		}
	}
	return n
}

func displayName(e Entity) string {
	if e.Title != "" {
		return e.Title
	}
	return "Item"
}
