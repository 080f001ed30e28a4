// internal/domain/notification/dispatcher.go
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a toast
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Default lifetimes
const (
	DefaultDuration = 4000 * time.Millisecond
	ErrorDuration   = 5000 * time.Millisecond
)

// Toast is a transient user notification
type Toast struct {
	ID         string        `json:"id"`
	Kind       Kind          `json:"type"`
	Title      string        `json:"title,omitempty"`
	Message    string        `json:"message"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Notifier is what other components use to raise toasts
type Notifier interface {
	Show(kind Kind, message, title string, duration time.Duration) Toast
}

// Listener receives the queue after every change
type Listener func([]Toast)

type entry struct {
	toast Toast
	timer *time.Timer
}

// Dispatcher is an in-memory queue of self-expiring toasts.
// Every toast owns its own timer.
type Dispatcher struct {
	mu        sync.Mutex
	order     []string
	entries   map[string]*entry
	listeners map[int]Listener
	nextID    int
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		entries:   make(map[string]*entry),
		listeners: make(map[int]Listener),
	}
}

// Show queues a toast. A zero duration picks the default for the kind.
func (d *Dispatcher) Show(kind Kind, message, title string, duration time.Duration) Toast {
	if duration <= 0 {
		duration = defaultDuration(kind)
	}

	toast := Toast{
		ID:         uuid.NewString(),
		Kind:       kind,
		Title:      title,
		Message:    message,
		Duration:   duration,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}

	d.mu.Lock()
	e := &entry{toast: toast}
	d.entries[toast.ID] = e
	d.order = append(d.order, toast.ID)
	e.timer = time.AfterFunc(duration, func() { d.Dismiss(toast.ID) })
	snapshot := d.snapshotLocked()
	listeners := d.listenersLocked()
	d.mu.Unlock()

	notify(listeners, snapshot)
	return toast
}

// Success queues a success toast with the default duration
func (d *Dispatcher) Success(message, title string) Toast {
	return d.Show(KindSuccess, message, title, 0)
}

// Error queues an error toast with the default duration
func (d *Dispatcher) Error(message, title string) Toast {
	return d.Show(KindError, message, title, 0)
}

// Warning queues a warning toast with the default duration
func (d *Dispatcher) Warning(message, title string) Toast {
	return d.Show(KindWarning, message, title, 0)
}

// Info queues an info toast with the default duration
func (d *Dispatcher) Info(message, title string) Toast {
	return d.Show(KindInfo, message, title, 0)
}

// Dismiss removes one toast. Returns false if it was already gone.
func (d *Dispatcher) Dismiss(id string) bool {
	d.mu.Lock()
	e, ok := d.entries[id]
	if !ok {
		d.mu.Unlock()
		return false
	}
	e.timer.Stop()
	delete(d.entries, id)
	for i, queued := range d.order {
		if queued == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	snapshot := d.snapshotLocked()
	listeners := d.listenersLocked()
	d.mu.Unlock()

	notify(listeners, snapshot)
	return true
}

// ClearAll empties the queue immediately
func (d *Dispatcher) ClearAll() {
	d.mu.Lock()
	for _, e := range d.entries {
		e.timer.Stop()
	}
	d.entries = make(map[string]*entry)
	d.order = nil
	listeners := d.listenersLocked()
	d.mu.Unlock()

	notify(listeners, nil)
}

// List returns the queued toasts in insertion order
func (d *Dispatcher) List() []Toast {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Len returns the number of queued toasts
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

// Register adds a change listener and returns a function removing it
func (d *Dispatcher) Register(l Listener) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = l
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

func (d *Dispatcher) snapshotLocked() []Toast {
	out := make([]Toast, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.entries[id].toast)
	}
	return out
}

func (d *Dispatcher) listenersLocked() []Listener {
	out := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, toasts []Toast) {
	for _, l := range listeners {
		l(toasts)
	}
}

func defaultDuration(kind Kind) time.Duration {
	if kind == KindError {
		return ErrorDuration
	}
	return DefaultDuration
}
