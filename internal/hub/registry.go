package hub

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry is the concurrent set of live observers. Membership
// mutations hold the lock; nothing sends to an observer while holding
// it, so a slow connection can never stall register or unregister.
type Registry struct {
	mu        sync.RWMutex
	observers map[string]*Observer
	logger    zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		observers: make(map[string]*Observer),
		logger:    logger.With().Str("component", "observer_registry").Logger(),
	}
}

// Register adds the observer and returns its handle. Registering the
// same observer again is a no-op beyond returning the same handle.
func (r *Registry) Register(o *Observer) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.observers[o.ID]; !ok {
		r.observers[o.ID] = o
		r.logger.Debug().Str("observer_id", o.ID).Int("total", len(r.observers)).Msg("observer registered")
	}
	return o.ID
}

// Unregister removes and closes the observer. Unknown or already
// removed handles are a no-op, so the disconnect path and the failed
// delivery path may both call it for the same connection.
func (r *Registry) Unregister(handle string) {
	r.mu.Lock()
	o, ok := r.observers[handle]
	if ok {
		delete(r.observers, handle)
	}
	total := len(r.observers)
	r.mu.Unlock()

	if !ok {
		return
	}
	o.Close()
	r.logger.Debug().Str("observer_id", handle).Int("total", total).Msg("observer unregistered")
}

// Snapshot returns the current membership as a copy. Iterating the
// snapshot never observes concurrent register or unregister calls.
func (r *Registry) Snapshot() []*Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Observer, 0, len(r.observers))
	for _, o := range r.observers {
		result = append(result, o)
	}
	return result
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// Drain closes every observer at shutdown
func (r *Registry) Drain() {
	r.mu.Lock()
	observers := r.observers
	r.observers = make(map[string]*Observer)
	r.mu.Unlock()

	for _, o := range observers {
		o.Close()
	}
	r.logger.Info().Int("closed", len(observers)).Msg("registry drained")
}
