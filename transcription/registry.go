package transcription

import "github.com/attestia/mediakit/provider"

// Registry maps provider names to transcription providers. Unlike storage,
// there is no URI-scheme dispatch; the default provider is normally pinned
// from configuration via SetDefault rather than inferred from registration
// order.
type Registry struct {
	*provider.Registry[Provider]
}

// NewRegistry creates an empty transcription registry.
func NewRegistry() *Registry {
	return &Registry{Registry: provider.NewRegistry[Provider]("transcription")}
}

// Resolve returns the named provider, or the default when name is empty.
func (r *Registry) Resolve(name string) (Provider, error) {
	if name == "" {
		return r.Default()
	}
	return r.ByName(name)
}
