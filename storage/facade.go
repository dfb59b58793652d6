package storage

import (
	"context"
	"io"
	"time"

	"github.com/attestia/mediakit/observability"
	"github.com/attestia/mediakit/uri"
)

// Facade functions resolve a provider from the registry by URI scheme and
// delegate. They add tracing but no error handling of their own; provider
// errors pass through unchanged.

// Download returns a reader for the object addressed by rawURI.
func Download(ctx context.Context, reg *Registry, rawURI string) (io.ReadCloser, error) {
	ctx, span := observability.StartSpan(ctx, "storage.download")
	defer span.End()

	p, u, err := resolve(reg, rawURI)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrProvider, p.Name())
	observability.SetSpanAttribute(ctx, observability.AttrURI, u.Raw)

	rc, err := p.Download(ctx, u)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return rc, err
}

// DownloadBytes stages a download fully in memory. Convenience for small
// objects; prefer Download for media files.
func DownloadBytes(ctx context.Context, reg *Registry, rawURI string) ([]byte, error) {
	rc, err := Download(ctx, reg, rawURI)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// SignedURL mints a time-limited access URL for the object. A non-positive
// expiry uses DefaultSignedURLExpiry.
func SignedURL(ctx context.Context, reg *Registry, rawURI string, expiry time.Duration) (string, error) {
	ctx, span := observability.StartSpan(ctx, "storage.signed_url")
	defer span.End()

	p, u, err := resolve(reg, rawURI)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return "", err
	}
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}
	url, err := p.SignedURL(ctx, u, expiry)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return url, err
}

// GetMetadata fetches metadata for the object addressed by rawURI.
func GetMetadata(ctx context.Context, reg *Registry, rawURI string) (*Metadata, error) {
	ctx, span := observability.StartSpan(ctx, "storage.metadata")
	defer span.End()

	p, u, err := resolve(reg, rawURI)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	md, err := p.Metadata(ctx, u)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return md, err
}

// Exists checks whether the object exists. Absence is not an error.
func Exists(ctx context.Context, reg *Registry, rawURI string) (bool, error) {
	p, u, err := resolve(reg, rawURI)
	if err != nil {
		return false, err
	}
	return p.Exists(ctx, u)
}

// Delete removes the object. Deleting an absent object is not an error.
func Delete(ctx context.Context, reg *Registry, rawURI string) error {
	ctx, span := observability.StartSpan(ctx, "storage.delete")
	defer span.End()

	p, u, err := resolve(reg, rawURI)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	if err := p.Delete(ctx, u); err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	return nil
}

func resolve(reg *Registry, rawURI string) (Storage, uri.URI, error) {
	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, uri.URI{}, err
	}
	p, err := reg.ResolveForURI(u)
	if err != nil {
		return nil, uri.URI{}, err
	}
	return p, u, nil
}
