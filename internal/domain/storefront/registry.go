// internal/domain/storefront/registry.go
package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/domain/cart"
	"github.com/your-org/sweets-storefront/internal/domain/checkout"
	"github.com/your-org/sweets-storefront/internal/domain/notification"
	"github.com/your-org/sweets-storefront/internal/domain/session"
)

// CommerceAPI is what the per-shopper components need from the commerce client
type CommerceAPI interface {
	cart.API
	checkout.API
}

// Deps are shared by every shopper
type Deps struct {
	Commerce CommerceAPI
	Provider session.Provider
	// Store may be nil, in which case identities live only in memory
	Store session.Store
	// Pending may be nil, in which case a checkout awaiting payment is lost with its shopper
	Pending  checkout.PendingStore
	Widget   checkout.Widget
	Recorder checkout.AttemptRecorder
	Logger   *logrus.Logger
	IdleTTL  time.Duration
}

// Registry holds the shoppers of all live browser sessions
type Registry struct {
	deps   Deps
	logger *logrus.Entry
	now    func() time.Time

	mu       sync.Mutex
	shoppers map[string]*Shopper
}

// NewRegistry creates an empty registry
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		logger:   deps.Logger.WithField("component", "storefront"),
		now:      time.Now,
		shoppers: make(map[string]*Shopper),
	}
}

// Get returns the shopper for sessionID, building it on first use.
// A stored identity is restored into the new shopper's gate, together with a
// checkout of the same account that was still awaiting payment.
func (r *Registry) Get(ctx context.Context, sessionID string) *Shopper {
	if s, ok := r.Peek(sessionID); ok {
		return s
	}

	initial := r.loadIdentity(ctx, sessionID)
	pending, hasPending := r.loadPending(ctx, sessionID, initial)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.shoppers[sessionID]; ok {
		s.touch(r.now())
		return s
	}

	s := r.build(sessionID, initial)
	if hasPending && s.Checkout.Restore(pending) {
		r.logger.WithFields(logrus.Fields{
			"session":  shortID(sessionID),
			"order_id": pending.OrderID,
		}).Info("Restored checkout awaiting payment")
	}
	s.touch(r.now())
	r.shoppers[sessionID] = s
	r.logger.WithFields(logrus.Fields{
		"session":       shortID(sessionID),
		"authenticated": !initial.Empty(),
	}).Debug("Shopper created")
	return s
}

// Peek returns an existing shopper without creating one
func (r *Registry) Peek(sessionID string) (*Shopper, bool) {
	r.mu.Lock()
	s, ok := r.shoppers[sessionID]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Len returns the number of live shoppers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shoppers)
}

// Sweep evicts shoppers idle longer than IdleTTL and returns how many.
// Shoppers with an active checkout are kept: the payment widget step has no
// time limit. Stored identities survive eviction.
func (r *Registry) Sweep() int {
	if r.deps.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.deps.IdleTTL)

	r.mu.Lock()
	var idle []*Shopper
	for id, s := range r.shoppers {
		if s.LastSeen().Before(cutoff) && !s.Checkout.State().Active() {
			idle = append(idle, s)
			delete(r.shoppers, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		r.logger.WithField("evicted", len(idle)).Info("Evicted idle shoppers")
	}
	return len(idle)
}

// RunJanitor sweeps every interval until ctx is done
func (r *Registry) RunJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close drops every shopper
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.shoppers
	r.shoppers = make(map[string]*Shopper)
	r.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}

func (r *Registry) build(sessionID string, initial session.Identity) *Shopper {
	log := r.deps.Logger.WithField("session", shortID(sessionID))

	gate := session.NewGate(sessionID, r.deps.Provider, initial, log)
	toasts := notification.NewDispatcher()
	manager := cart.NewManager(r.deps.Commerce, gate, toasts, log)
	flow := checkout.NewFlow(sessionID, r.deps.Commerce, manager, r.deps.Widget, gate, r.deps.Recorder, log)
	if r.deps.Pending != nil {
		flow.UsePendingStore(r.deps.Pending)
	}

	s := &Shopper{
		ID:       sessionID,
		Gate:     gate,
		Cart:     manager,
		Checkout: flow,
		Toasts:   toasts,
	}
	s.persist = func(identity session.Identity) { r.saveIdentity(sessionID, identity) }

	s.subject = initial.Subject
	unsubscribe := gate.Subscribe(func(c session.Change) {
		if c.Identity.Empty() {
			manager.Reset()
			flow.Reset()
			toasts.ClearAll()
			s.SelectAddress(0)
			r.deleteIdentity(sessionID)
			s.swapSubject("")
			return
		}

		// A different account signed in on this browser
		if previous := s.swapSubject(c.Identity.Subject); previous != c.Identity.Subject {
			manager.Reset()
			flow.Reset()
			s.SelectAddress(0)
		}
		r.saveIdentity(sessionID, c.Identity)
	})
	s.closers = append(s.closers, unsubscribe)

	return s
}

func (r *Registry) loadIdentity(ctx context.Context, sessionID string) session.Identity {
	if r.deps.Store == nil {
		return session.Identity{}
	}

	identity, err := r.deps.Store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			r.logger.WithError(err).Warn("Failed to restore session")
		}
		return session.Identity{}
	}
	return identity
}

// loadPending returns the stored checkout awaiting payment for the restored account
func (r *Registry) loadPending(ctx context.Context, sessionID string, identity session.Identity) (checkout.Pending, bool) {
	if r.deps.Pending == nil || identity.Empty() {
		return checkout.Pending{}, false
	}

	p, err := r.deps.Pending.LoadPending(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, checkout.ErrNoPending) {
			r.logger.WithError(err).Warn("Failed to restore pending checkout")
		}
		return checkout.Pending{}, false
	}
	if p.Subject != identity.Subject {
		return checkout.Pending{}, false
	}
	return p, true
}

func (r *Registry) saveIdentity(sessionID string, identity session.Identity) {
	if r.deps.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.deps.Store.Save(ctx, sessionID, identity); err != nil {
		r.logger.WithError(err).Warn("Failed to persist session")
	}
}

func (r *Registry) deleteIdentity(sessionID string) {
	if r.deps.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.deps.Store.Delete(ctx, sessionID); err != nil {
		r.logger.WithError(err).Warn("Failed to delete session")
	}
}

// shortID keeps session ids out of logs
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
