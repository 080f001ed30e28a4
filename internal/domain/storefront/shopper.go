// internal/domain/storefront/shopper.go
package storefront

import (
	"sync"
	"time"

	"github.com/your-org/sweets-storefront/internal/domain/cart"
	"github.com/your-org/sweets-storefront/internal/domain/checkout"
	"github.com/your-org/sweets-storefront/internal/domain/notification"
	"github.com/your-org/sweets-storefront/internal/domain/session"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// Shopper bundles the per-session components of one browser session
type Shopper struct {
	ID       string
	Gate     *session.Gate
	Cart     *cart.Manager
	Checkout *checkout.Flow
	Toasts   *notification.Dispatcher

	mu              sync.Mutex
	selectedAddress int
	subject         string
	lastSeen        time.Time
	persist         func(session.Identity)
	closers         []func()
}

// SelectAddress records the delivery address picked for checkout
func (s *Shopper) SelectAddress(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedAddress = id
}

// SelectedAddress returns the explicitly picked address, 0 when none
func (s *Shopper) SelectedAddress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedAddress
}

// AttachProfile stores a fetched profile on the session if token is still current
func (s *Shopper) AttachProfile(token string, user *commerce.User) {
	if s.Gate.SetUser(token, user) && s.persist != nil {
		s.persist(s.Gate.Current())
	}
}

// LastSeen is when the shopper was last used
func (s *Shopper) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Shopper) swapSubject(subject string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.subject
	s.subject = subject
	return previous
}

func (s *Shopper) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Shopper) close() {
	for _, fn := range s.closers {
		fn()
	}
	s.Toasts.ClearAll()
	s.Gate.Close()
}
