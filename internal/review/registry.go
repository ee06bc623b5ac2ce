package review

import (
	"context"
	"sync"
)

// Validator is a named security check. Implementations must treat the target
// as read-only and should honor ctx cancellation; the engine enforces a
// deadline around Check.
type Validator interface {
	Check(ctx context.Context, target *Target) (*Result, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, target *Target) (*Result, error)

// Check implements Validator.
func (f ValidatorFunc) Check(ctx context.Context, target *Target) (*Result, error) {
	return f(ctx, target)
}

// Registry is a named set of validators, safe for concurrent use. Names are
// unique; registering an existing name overwrites the earlier entry.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// Register adds or replaces a validator under name. Returns false for an
// empty name or nil validator.
func (r *Registry) Register(name string, v Validator) bool {
	if name == "" || v == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = v
	return true
}

// Unregister removes a validator, reporting whether an entry existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.validators[name]
	delete(r.validators, name)
	return ok
}

// Len returns the number of registered validators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.validators)
}

// snapshot copies the current set so a run is unaffected by concurrent
// Register/Unregister calls.
func (r *Registry) snapshot() map[string]Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Validator, len(r.validators))
	for name, v := range r.validators {
		out[name] = v
	}
	return out
}
