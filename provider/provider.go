// Package provider defines the base provider contract and a generic,
// insertion-ordered registry shared by the storage and transcription stacks.
package provider

import "context"

// Provider is the base interface all providers must implement.
type Provider interface {
	// Name returns the provider's unique registry name.
	Name() string
	// DisplayName returns a human-readable provider name for UIs and logs.
	DisplayName() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}
