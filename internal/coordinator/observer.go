package coordinator

import (
	"sync"

	"pos-session-manager/internal/session/domain"
)

// State is the snapshot delivered to observers. The session is a deep copy;
// observers must treat the whole snapshot as read-only.
type State struct {
	Session             *domain.Session
	ShowExtensionPrompt bool
	ShowLogoutMessage   bool
	DemoMessage         string
}

// Observer receives state snapshots. Delivery order between observers is
// unspecified.
type Observer func(State)

// Subscription identifies one registered observer.
type Subscription struct {
	registry *Registry
	id       uint64
	once     sync.Once
}

// Remove unregisters the observer. Safe to call more than once and safe to
// call while a notification pass is in progress.
func (s *Subscription) Remove() {
	s.once.Do(func() {
		s.registry.mu.Lock()
		delete(s.registry.subs, s.id)
		s.registry.mu.Unlock()
	})
}

// Registry fans state snapshots out to subscribed observers. Any number of UI
// mounts may subscribe; timers stay with the coordinator, never with observers.
type Registry struct {
	mu     sync.Mutex
	subs   map[uint64]Observer
	nextID uint64
}

// NewRegistry returns an empty observer registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[uint64]Observer)}
}

// Subscribe registers fn and returns its subscription handle.
func (r *Registry) Subscribe(fn Observer) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.subs[id] = fn
	return &Subscription{registry: r, id: id}
}

// Publish delivers state to every observer registered at the start of the
// pass. Callbacks run synchronously outside the lock, so observers may
// subscribe or remove during delivery without deadlocking.
func (r *Registry) Publish(state State) {
	r.mu.Lock()
	snapshot := make([]Observer, 0, len(r.subs))
	for _, fn := range r.subs {
		snapshot = append(snapshot, fn)
	}
	r.mu.Unlock()
	for _, fn := range snapshot {
		fn(state)
	}
}

// Len returns the number of registered observers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Clear drops all observers.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[uint64]Observer)
}
