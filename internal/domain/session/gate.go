// internal/domain/session/gate.go
package session

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// Change is republished by the gate whenever the identity changes
type Change struct {
	Identity Identity
	// Forced is set when the storefront dropped the session itself, e.g. after a 401
	Forced bool
	Reason string
}

// Gate exposes the current identity of one shopper and gates cart and checkout actions
type Gate struct {
	mu          sync.RWMutex
	identity    Identity
	listeners   map[int]func(Change)
	nextID      int
	unsubscribe func()
	logger      *logrus.Entry
}

// NewGate creates a gate seeded with initial and subscribed to the provider's events for sessionID
func NewGate(sessionID string, provider Provider, initial Identity, logger *logrus.Entry) *Gate {
	g := &Gate{
		identity:  initial,
		listeners: make(map[int]func(Change)),
		logger:    logger.WithField("component", "session"),
	}
	if provider != nil {
		g.unsubscribe = provider.Subscribe(sessionID, g.apply)
	}
	return g
}

// IsAuthenticated is true iff a non-empty access token is present
func (g *Gate) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity.Token != ""
}

// Token returns the current access token, empty when signed out
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity.Token
}

// Current returns a copy of the current identity
func (g *Gate) Current() Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity
}

// Subscribe registers fn for identity changes and returns a function removing it
func (g *Gate) Subscribe(fn func(Change)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// ForceSignOut drops the local session, e.g. after the commerce API answered 401
func (g *Gate) ForceSignOut(reason string) {
	g.mu.Lock()
	if g.identity.Token == "" {
		g.mu.Unlock()
		return
	}
	g.identity = Identity{}
	listeners := g.listenersLocked()
	g.mu.Unlock()

	g.logger.WithField("reason", reason).Warn("Session forcibly signed out")
	publish(listeners, Change{Forced: true, Reason: reason})
}

// Close detaches the gate from the provider
func (g *Gate) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

// apply handles one provider event
func (g *Gate) apply(ev Event) {
	var next Identity
	switch ev.Kind {
	case EventSignedIn, EventRefreshed:
		next = ev.Identity
	case EventSignedOut:
		next = Identity{}
	default:
		g.logger.WithField("kind", ev.Kind).Warn("Ignoring unknown identity event")
		return
	}

	g.mu.Lock()
	// Keep the cached profile across a refresh of the same subject
	if ev.Kind == EventRefreshed && next.User == nil && g.identity.Subject == next.Subject {
		next.User = g.identity.User
	}
	g.identity = next
	listeners := g.listenersLocked()
	g.mu.Unlock()

	g.logger.WithFields(logrus.Fields{
		"event":   ev.Kind,
		"subject": next.Subject,
	}).Info("Identity changed")
	publish(listeners, Change{Identity: next})
}

// SetUser attaches a fetched profile if token is still the current one
func (g *Gate) SetUser(token string, user *commerce.User) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token == "" || g.identity.Token != token {
		return false
	}
	g.identity.User = user
	return true
}

func (g *Gate) listenersLocked() []func(Change) {
	out := make([]func(Change), 0, len(g.listeners))
	for _, fn := range g.listeners {
		out = append(out, fn)
	}
	return out
}

func publish(listeners []func(Change), c Change) {
	for _, fn := range listeners {
		fn(c)
	}
}
