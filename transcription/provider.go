// Package transcription defines the transcription provider contract, the
// uniform result shape all providers produce, and a registry keyed by
// provider name. Dispatch is by name (or configured default), never by URI
// scheme; each provider declares what requests it accepts via CanHandle.
package transcription

import (
	"context"

	"github.com/attestia/mediakit/provider"
)

// Provider is the interface transcription backends implement. Backends differ
// wildly in mechanism; the uniform Result shape is the contract's
// entire value.
type Provider interface {
	provider.Provider

	// Capabilities returns the provider's static capability descriptor.
	Capabilities() Capabilities

	// CanHandle reports whether this provider accepts the request, judging
	// the media URI scheme and the provider's own feature limits. It never
	// performs I/O.
	CanHandle(req Request) bool

	// Transcribe runs the request and returns the uniform result.
	// Errors are typed: retryable for quota and network failures,
	// permanent for unsupported formats and over-limit media.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}
