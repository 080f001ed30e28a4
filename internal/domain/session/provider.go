// internal/domain/session/provider.go
package session

import (
	"sync"
	"time"

	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// Identity is the signed-in user and the provider's access token
type Identity struct {
	Token     string         `json:"token"`
	Subject   string         `json:"subject,omitempty"`
	User      *commerce.User `json:"user,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// Empty reports whether there is no token
func (i Identity) Empty() bool {
	return i.Token == ""
}

// EventKind is what happened at the identity provider
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventRefreshed EventKind = "refreshed"
	EventSignedOut EventKind = "signed_out"
)

// Event is emitted by the identity provider for one browser session
type Event struct {
	Kind     EventKind
	Identity Identity
}

// Provider delivers identity provider events for a session
type Provider interface {
	Subscribe(sessionID string, fn func(Event)) (unsubscribe func())
}

// Hub is the in-process provider. The identity provider's browser SDK reports
// sign-in, refresh and sign-out through the session endpoints, which publish here.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int]func(Event)
	nextID int
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(Event))}
}

// Subscribe registers fn for events of one session
func (h *Hub) Subscribe(sessionID string, fn func(Event)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]func(Event))
	}
	h.subs[sessionID][id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[sessionID], id)
		if len(h.subs[sessionID]) == 0 {
			delete(h.subs, sessionID)
		}
	}
}

// Publish delivers ev to every subscriber of the session
func (h *Hub) Publish(sessionID string, ev Event) {
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.subs[sessionID]))
	for _, fn := range h.subs[sessionID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
