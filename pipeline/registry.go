package pipeline

import (
	"sort"
	"sync"

	"github.com/kbukum/datumkit/datum"
	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/transform"
)

// Registry provides named transformation lookup for building pipelines from
// definitions. The zero value is an empty registry ready to use.
type Registry[T datum.Sample] struct {
	mu    sync.RWMutex
	steps map[string]transform.Transformation[T]
}

// NewRegistry creates a new empty Registry.
func NewRegistry[T datum.Sample]() *Registry[T] {
	return &Registry[T]{steps: make(map[string]transform.Transformation[T])}
}

// Register adds transformations under their own names. A later registration
// replaces an earlier one with the same name.
func (r *Registry[T]) Register(ts ...transform.Transformation[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.steps == nil {
		r.steps = make(map[string]transform.Transformation[T], len(ts))
	}
	for _, t := range ts {
		r.steps[t.Name()] = t
	}
}

// Get retrieves a transformation by name.
func (r *Registry[T]) Get(name string) (transform.Transformation[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.steps[name]
	return t, ok
}

// Lookup retrieves a transformation or fails with NOT_FOUND.
func (r *Registry[T]) Lookup(name string) (transform.Transformation[T], error) {
	t, ok := r.Get(name)
	if !ok {
		return transform.Transformation[T]{}, errors.NotFound("transformation", name)
	}
	return t, nil
}

// List returns sorted names of all registered transformations.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
