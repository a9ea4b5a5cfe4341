package grid

import (
	"sort"
	"sync"
)

// Registry holds the classifier identifiers the orchestration layer can
// actually construct. Grid configs are validated against it at load
// time, before any expensive computation.
type Registry struct {
	mu    sync.RWMutex
	known map[string]struct{}
}

// NewRegistry creates a registry of the given classifier identifiers.
func NewRegistry(names ...string) *Registry {
	r := &Registry{known: make(map[string]struct{}, len(names))}
	for _, n := range names {
		r.known[n] = struct{}{}
	}
	return r
}

// Add registers an identifier.
func (r *Registry) Add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[name] = struct{}{}
}

// Has reports whether the identifier is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.known[name]
	return ok
}

// Names returns the registered identifiers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.known))
	for n := range r.known {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
