// Package storage provides a URI-addressed abstraction over heterogeneous
// object stores. Providers implement a fixed contract against the uri model;
// a registry dispatches calls by name or URI scheme; an UploadSession drives
// a provider's upload primitive with pause/resume/cancel and progress
// reporting.
//
// Supported providers: Google Cloud Storage (gs://) and Amazon S3 (s3://),
// plus their HTTPS URL forms.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/attestia/mediakit/provider"
	"github.com/attestia/mediakit/uri"
)

// DefaultSignedURLExpiry is used when a caller does not specify an expiry.
const DefaultSignedURLExpiry = time.Hour

// Capabilities describes what a storage provider supports. Static per
// provider instance; never mutated after registration.
type Capabilities struct {
	// ResumableUpload indicates the provider's upload primitive survives
	// chunked, incremental writes without restaging the whole object.
	ResumableUpload bool `json:"resumable_upload"`
	// PauseResume indicates an UploadSession on this provider honors Pause.
	PauseResume bool `json:"pause_resume"`
	// SignedURLs indicates the provider can mint time-limited access URLs.
	SignedURLs bool `json:"signed_urls"`
	// Streaming indicates downloads stream rather than staging in memory.
	Streaming bool `json:"streaming"`
	// MaxFileSize is the largest accepted object in bytes. Zero means no limit.
	MaxFileSize int64 `json:"max_file_size,omitempty"`
}

// Metadata contains metadata about a stored object. Produced by a provider
// on read; the remote store is the source of truth, nothing is persisted here.
type Metadata struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	TimeCreated time.Time `json:"time_created,omitzero"`
	Updated     time.Time `json:"updated,omitzero"`
}

// UploadOptions configures a single upload.
type UploadOptions struct {
	// ContentType is the MIME type recorded on the object.
	ContentType string
	// TotalBytes is the total transfer size. Required for progress reporting.
	TotalBytes int64
	// ChunkSize is the write granularity; progress is reported per chunk.
	ChunkSize int64
}

// Default and minimum chunk sizes. The floor matches the granularity the
// GCS resumable protocol accepts.
const (
	DefaultChunkSize = 1 << 20
	MinChunkSize     = 256 << 10
)

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (o *UploadOptions) ApplyDefaults() {
	if o.ContentType == "" {
		o.ContentType = "application/octet-stream"
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkSize < MinChunkSize {
		o.ChunkSize = MinChunkSize
	}
}

// UploadWriter is a provider's in-flight upload. Write appends bytes, Close
// commits the object, Abort discards partial state. After Close or Abort the
// writer is dead.
type UploadWriter interface {
	io.Writer
	Close() error
	Abort() error
}

// Storage is the contract every object-store provider implements. All
// operations are remote I/O; nothing is cached by the provider itself, and
// every method suspends on the network until the backend responds or ctx
// is done.
type Storage interface {
	provider.Provider

	// Scheme returns the URI scheme this provider claims.
	Scheme() uri.Scheme

	// Capabilities returns the provider's static capability descriptor.
	Capabilities() Capabilities

	// CanHandle is a cheap scheme check against the parsed URI.
	CanHandle(u uri.URI) bool

	// Download returns a reader for the object. The caller closes it.
	// Fails with NOT_FOUND if the object is absent, PERMISSION_DENIED if
	// access is refused, TRANSIENT_IO for network failures.
	Download(ctx context.Context, u uri.URI) (io.ReadCloser, error)

	// SignedURL mints a time-limited access URL. Fails with
	// UNSUPPORTED_OPERATION if the provider lacks SignedURLs.
	SignedURL(ctx context.Context, u uri.URI, expiry time.Duration) (string, error)

	// Metadata fetches object metadata. Fails with NOT_FOUND if absent.
	Metadata(ctx context.Context, u uri.URI) (*Metadata, error)

	// Exists never errors for absence; it only errors on transport failure.
	Exists(ctx context.Context, u uri.URI) (bool, error)

	// Delete removes the object. Deleting an already-absent object is not
	// an error.
	Delete(ctx context.Context, u uri.URI) error

	// NewUpload opens the provider's upload primitive for the object.
	// The UploadSession drives it chunk by chunk.
	NewUpload(ctx context.Context, u uri.URI, opts UploadOptions) (UploadWriter, error)
}
