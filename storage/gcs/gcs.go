// Package gcs implements the storage contract for Google Cloud Storage.
// Objects are addressed as gs://bucket/path or the public
// https://storage.googleapis.com/bucket/path form. Uploads use the GCS
// resumable protocol, so transfers survive pause/resume at chunk boundaries.
package gcs

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/logger"
	"github.com/attestia/mediakit/provider"
	"github.com/attestia/mediakit/storage"
	"github.com/attestia/mediakit/uri"
)

const (
	// Name is the provider's registry name.
	Name = "gcs"

	httpsPrefix = "https://storage.googleapis.com/"
)

// Config holds GCS provider configuration.
type Config struct {
	// CredentialsFile is a path to a service account key. Empty uses
	// Application Default Credentials.
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`
	// Endpoint overrides the API endpoint, for emulators.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
}

// Provider is the Google Cloud Storage backend.
type Provider struct {
	cfg    Config
	log    *logger.Logger
	client *provider.Lazy[*gstorage.Client]
}

var _ storage.Storage = (*Provider)(nil)

// New creates a GCS provider. The client is constructed lazily on first use
// so registration never performs I/O.
func New(cfg Config) *Provider {
	p := &Provider{
		cfg: cfg,
		log: logger.Get("storage.gcs"),
	}
	p.client = provider.NewLazy(func(ctx context.Context) (*gstorage.Client, error) {
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.Endpoint))
		}
		client, err := gstorage.NewClient(ctx, opts...)
		if err != nil {
			return nil, errors.TransientIO("gcs client init", err)
		}
		return client, nil
	})
	return p
}

func (p *Provider) Name() string        { return Name }
func (p *Provider) DisplayName() string { return "Google Cloud Storage" }

// IsAvailable reports whether a client can be constructed with the current
// credentials.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Get(ctx)
	return err == nil
}

func (p *Provider) Scheme() uri.Scheme { return uri.SchemeGS }

func (p *Provider) Capabilities() storage.Capabilities {
	return storage.Capabilities{
		ResumableUpload: true,
		PauseResume:     true,
		SignedURLs:      true,
		Streaming:       true,
	}
}

// CanHandle claims gs:// URIs and the storage.googleapis.com HTTPS form.
func (p *Provider) CanHandle(u uri.URI) bool {
	if u.Scheme == uri.SchemeGS {
		return true
	}
	return u.Scheme == uri.SchemeHTTPS && strings.HasPrefix(u.Raw, httpsPrefix)
}

func (p *Provider) object(ctx context.Context, u uri.URI) (*gstorage.ObjectHandle, error) {
	client, err := p.client.Get(ctx)
	if err != nil {
		return nil, err
	}
	return client.Bucket(u.Bucket).Object(u.Path), nil
}

func (p *Provider) Download(ctx context.Context, u uri.URI) (io.ReadCloser, error) {
	obj, err := p.object(ctx, u)
	if err != nil {
		return nil, err
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, mapError(err, u, "download")
	}
	return r, nil
}

func (p *Provider) SignedURL(ctx context.Context, u uri.URI, expiry time.Duration) (string, error) {
	client, err := p.client.Get(ctx)
	if err != nil {
		return "", err
	}
	url, err := client.Bucket(u.Bucket).SignedURL(u.Path, &gstorage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", mapError(err, u, "sign URL")
	}
	return url, nil
}

func (p *Provider) Metadata(ctx context.Context, u uri.URI) (*storage.Metadata, error) {
	obj, err := p.object(ctx, u)
	if err != nil {
		return nil, err
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, mapError(err, u, "metadata")
	}
	return &storage.Metadata{
		Name:        attrs.Name,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		TimeCreated: attrs.Created,
		Updated:     attrs.Updated,
	}, nil
}

func (p *Provider) Exists(ctx context.Context, u uri.URI) (bool, error) {
	obj, err := p.object(ctx, u)
	if err != nil {
		return false, err
	}
	_, err = obj.Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, gstorage.ErrObjectNotExist) {
		return false, nil
	}
	return false, mapError(err, u, "exists")
}

func (p *Provider) Delete(ctx context.Context, u uri.URI) error {
	obj, err := p.object(ctx, u)
	if err != nil {
		return err
	}
	err = obj.Delete(ctx)
	if err == nil || stderrors.Is(err, gstorage.ErrObjectNotExist) {
		return nil
	}
	return mapError(err, u, "delete")
}

// NewUpload opens a resumable writer. The writer flushes at ChunkSize
// boundaries; aborting cancels the writer's context, which discards the
// resumable session server-side.
func (p *Provider) NewUpload(ctx context.Context, u uri.URI, opts storage.UploadOptions) (storage.UploadWriter, error) {
	obj, err := p.object(ctx, u)
	if err != nil {
		return nil, err
	}
	wctx, cancel := context.WithCancel(ctx)
	w := obj.NewWriter(wctx)
	w.ContentType = opts.ContentType
	w.ChunkSize = int(opts.ChunkSize)

	p.log.Debug("resumable upload opened", map[string]interface{}{
		"uri":        u.Raw,
		"chunk_size": opts.ChunkSize,
	})
	return &uploadWriter{w: w, cancel: cancel, uri: u}, nil
}

type uploadWriter struct {
	w      *gstorage.Writer
	cancel context.CancelFunc
	uri    uri.URI
}

func (uw *uploadWriter) Write(p []byte) (int, error) {
	n, err := uw.w.Write(p)
	if err != nil {
		return n, mapError(err, uw.uri, "upload write")
	}
	return n, nil
}

func (uw *uploadWriter) Close() error {
	if err := uw.w.Close(); err != nil {
		return mapError(err, uw.uri, "upload commit")
	}
	uw.cancel()
	return nil
}

func (uw *uploadWriter) Abort() error {
	uw.cancel()
	return nil
}

// mapError translates GCS SDK errors into the shared taxonomy.
func mapError(err error, u uri.URI, operation string) error {
	if stderrors.Is(err, gstorage.ErrObjectNotExist) || stderrors.Is(err, gstorage.ErrBucketNotExist) {
		return errors.NotFound(u.Raw).WithCause(err)
	}
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return errors.NotFound(u.Raw).WithCause(err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errors.PermissionDenied(u.Raw).WithCause(err)
		case http.StatusTooManyRequests:
			return errors.RateLimited("gcs", err)
		}
	}
	return errors.TransientIO("gcs "+operation, err).WithDetail("uri", u.Raw)
}
