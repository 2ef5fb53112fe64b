// Package registry maps model names like "shop.Order" to model prototypes,
// so factories can be declared before the models they target are wired up.
package registry

import (
	"fmt"
	"sync"
)

// Loader resolves a model name that is not yet registered. It runs on
// first lookup of that name; a successful result is cached, a failure is
// not, so a later lookup retries after the failing precondition clears.
type Loader func(name string) (any, error)

// Registry is a read-through cache of model prototypes keyed by name.
// It is safe for concurrent use, and a Loader may itself call Register
// (re-entrant registration during lazy resolution is allowed).
type Registry struct {
	mu     sync.RWMutex
	models map[string]any
	loader Loader
}

// New creates an empty registry with an optional loader.
func New(loader Loader) *Registry {
	return &Registry{
		models: make(map[string]any),
		loader: loader,
	}
}

// Register stores a model prototype under the given name, replacing any
// previous entry.
func (r *Registry) Register(name string, model any) {
	r.mu.Lock()
	r.models[name] = model
	r.mu.Unlock()
}

// Lookup returns the model registered under name, resolving it through the
// loader on a miss. Loader errors are returned as-is and never cached.
func (r *Registry) Lookup(name string) (any, error) {
	r.mu.RLock()
	model, ok := r.models[name]
	r.mu.RUnlock()
	if ok {
		return model, nil
	}

	r.mu.RLock()
	loader := r.loader
	r.mu.RUnlock()
	if loader == nil {
		return nil, fmt.Errorf("model %q is not registered", name)
	}

	// The loader runs outside the lock so it may register models itself.
	model, err := loader(name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model %q: %w", name, err)
	}

	r.mu.Lock()
	// A concurrent lookup may have resolved the same name; keep the first
	// cached prototype so callers always see one identity per name.
	if cached, ok := r.models[name]; ok {
		model = cached
	} else {
		r.models[name] = model
	}
	r.mu.Unlock()

	return model, nil
}

// SetLoader replaces the registry's loader.
func (r *Registry) SetLoader(loader Loader) {
	r.mu.Lock()
	r.loader = loader
	r.mu.Unlock()
}

// Names returns the registered model names, in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	return names
}

// defaultRegistry backs the package-level convenience functions.
var defaultRegistry = New(nil)

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register stores a model in the process-wide registry.
func Register(name string, model any) {
	defaultRegistry.Register(name, model)
}

// Lookup resolves a model from the process-wide registry.
func Lookup(name string) (any, error) {
	return defaultRegistry.Lookup(name)
}
