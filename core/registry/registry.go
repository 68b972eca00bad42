package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps task titles to handlers. Registration happens at startup;
// resolution happens on every claimed message, so reads take the cheap path.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds handlers under their names. Panics on an empty name or a
// duplicate registration; both are wiring mistakes that must surface before
// the process starts consuming tasks.
func (r *Registry) Register(handlers ...Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range handlers {
		name := h.Name()
		if name == "" {
			panic("registry: handler with empty name")
		}
		if _, exists := r.handlers[name]; exists {
			panic(fmt.Sprintf("%s: %s", ErrDuplicateHandler, name))
		}
		r.handlers[name] = h
	}
}

// Resolve returns the handler registered under title, or ErrHandlerNotFound.
// Resolution is repeatable; there is no caching to go stale.
func (r *Registry) Resolve(title string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[title]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, title)
	}
	return h, nil
}

// Names returns the registered titles sorted, for startup logging.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
