package provider

import (
	"slices"
	"sync"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/logger"
)

// Registry holds named provider instances in insertion order and tracks a
// designated default. Registries are populated once at startup and are
// effectively read-only afterwards; the lock only guards against misuse
// during initialization.
type Registry[T Provider] struct {
	mu          sync.RWMutex
	kind        string
	providers   map[string]T
	order       []string
	defaultName string
	log         *logger.Logger
}

// NewRegistry creates an empty registry. kind labels the registry in logs
// and error messages ("storage", "transcription").
func NewRegistry[T Provider](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		providers: make(map[string]T),
		log:       logger.Get(kind),
	}
}

// RegisterOption configures a Register call.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	isDefault bool
}

// AsDefault marks the registered provider as the registry default.
func AsDefault() RegisterOption {
	return func(o *registerOptions) { o.isDefault = true }
}

// Register inserts a provider. The first provider ever registered becomes the
// default unless a later Register passes AsDefault. Re-registering an existing
// name overwrites the instance silently; last write wins.
func (r *Registry[T]) Register(p T, opts ...RegisterOption) {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p

	if o.isDefault || r.defaultName == "" {
		r.defaultName = name
	}
	r.log.Info("provider registered", map[string]interface{}{
		"provider": name,
		"default":  r.defaultName == name,
	})
}

// ByName returns a provider by its registry name.
func (r *Registry[T]) ByName(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	var zero T
	return zero, errors.ProviderNotFound(name, slices.Clone(r.order))
}

// Default returns the designated default provider.
func (r *Registry[T]) Default() (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultName == "" {
		var zero T
		return zero, errors.NoProvidersRegistered(r.kind)
	}
	return r.providers[r.defaultName], nil
}

// SetDefault re-points the default at an already-registered provider.
func (r *Registry[T]) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return errors.ProviderNotFound(name, slices.Clone(r.order))
	}
	r.defaultName = name
	return nil
}

// Names returns provider names in registration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// All returns provider instances in registration order. Registration order
// is the tie-break order for scheme dispatch: first registered, first checked.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
