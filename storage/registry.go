package storage

import (
	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/provider"
	"github.com/attestia/mediakit/uri"
)

// Registry maps provider names to Storage instances and dispatches by URI
// scheme. Populate it once at startup; reads need no further coordination.
type Registry struct {
	*provider.Registry[Storage]
}

// NewRegistry creates an empty storage registry.
func NewRegistry() *Registry {
	return &Registry{Registry: provider.NewRegistry[Storage]("storage")}
}

// ResolveForURI returns the first registered provider whose CanHandle accepts
// the URI. Registration order is the tie-break when multiple providers could
// claim a scheme.
func (r *Registry) ResolveForURI(u uri.URI) (Storage, error) {
	for _, p := range r.All() {
		if p.CanHandle(u) {
			return p, nil
		}
	}
	return nil, errors.NoProviderForURI(u.Raw)
}

// Resolve returns the named provider, or the default when name is empty.
func (r *Registry) Resolve(name string) (Storage, error) {
	if name == "" {
		return r.Default()
	}
	return r.ByName(name)
}
