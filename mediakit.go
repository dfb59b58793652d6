// Package mediakit is a URI-addressed abstraction over heterogeneous object
// stores and transcription backends. A Client bundles one storage registry
// and one transcription registry, registers the built-in providers from
// configuration, and re-exposes the package facades so callers never touch
// the registries directly.
package mediakit

import (
	"context"
	"io"
	"time"

	"github.com/attestia/mediakit/config"
	"github.com/attestia/mediakit/logger"
	"github.com/attestia/mediakit/storage"
	"github.com/attestia/mediakit/storage/gcs"
	"github.com/attestia/mediakit/storage/s3"
	"github.com/attestia/mediakit/transcription"
	"github.com/attestia/mediakit/transcription/gspeech"
	openaitx "github.com/attestia/mediakit/transcription/openai"
	"github.com/attestia/mediakit/uri"
)

// StorageConfig selects and configures storage providers. A nil provider
// section leaves that provider unregistered.
type StorageConfig struct {
	// DefaultProvider pins the default. Empty keeps first-registered.
	DefaultProvider string      `mapstructure:"default_provider" json:"default_provider"`
	GCS             *gcs.Config `mapstructure:"gcs" json:"gcs"`
	S3              *s3.Config  `mapstructure:"s3" json:"s3"`
}

// TranscriptionConfig selects and configures transcription providers.
type TranscriptionConfig struct {
	// DefaultProvider pins the default, normally sourced from the
	// environment. Empty keeps first-registered.
	DefaultProvider string           `mapstructure:"default_provider" json:"default_provider"`
	GSpeech         *gspeech.Config  `mapstructure:"gspeech" json:"gspeech"`
	OpenAI          *openaitx.Config `mapstructure:"openai" json:"openai"`
}

// Config is the module's full configuration surface.
type Config struct {
	Logger        logger.Config       `mapstructure:"logger" json:"logger"`
	Storage       StorageConfig       `mapstructure:"storage" json:"storage"`
	Transcription TranscriptionConfig `mapstructure:"transcription" json:"transcription"`
}

// LoadConfig reads configuration from config files and the environment.
func LoadConfig(serviceName string) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(serviceName, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Client bundles the storage and transcription registries.
type Client struct {
	storage       *storage.Registry
	transcription *transcription.Registry
	log           *logger.Logger
}

// New builds a Client, registers every configured provider, and pins the
// configured defaults. Provider clients are constructed lazily, so New never
// performs network I/O.
func New(cfg Config) (*Client, error) {
	logger.Init(cfg.Logger)

	c := &Client{
		storage:       storage.NewRegistry(),
		transcription: transcription.NewRegistry(),
		log:           logger.Get("mediakit"),
	}

	if cfg.Storage.GCS != nil {
		c.storage.Register(gcs.New(*cfg.Storage.GCS))
	}
	if cfg.Storage.S3 != nil {
		c.storage.Register(s3.New(*cfg.Storage.S3))
	}
	if cfg.Storage.DefaultProvider != "" {
		if err := c.storage.SetDefault(cfg.Storage.DefaultProvider); err != nil {
			return nil, err
		}
	}

	if cfg.Transcription.GSpeech != nil {
		c.transcription.Register(gspeech.New(*cfg.Transcription.GSpeech))
	}
	if cfg.Transcription.OpenAI != nil {
		c.transcription.Register(openaitx.New(*cfg.Transcription.OpenAI))
	}
	if cfg.Transcription.DefaultProvider != "" {
		if err := c.transcription.SetDefault(cfg.Transcription.DefaultProvider); err != nil {
			return nil, err
		}
	}

	c.log.Info("mediakit initialized", map[string]interface{}{
		"storage_providers":       c.storage.Names(),
		"transcription_providers": c.transcription.Names(),
	})
	return c, nil
}

// Storage exposes the storage registry, for registering custom providers.
func (c *Client) Storage() *storage.Registry { return c.storage }

// Transcription exposes the transcription registry.
func (c *Client) Transcription() *transcription.Registry { return c.transcription }

// Download returns a reader for the object addressed by rawURI.
func (c *Client) Download(ctx context.Context, rawURI string) (io.ReadCloser, error) {
	return storage.Download(ctx, c.storage, rawURI)
}

// DownloadBytes stages a download fully in memory.
func (c *Client) DownloadBytes(ctx context.Context, rawURI string) ([]byte, error) {
	return storage.DownloadBytes(ctx, c.storage, rawURI)
}

// SignedURL mints a time-limited access URL for the object.
func (c *Client) SignedURL(ctx context.Context, rawURI string, expiry time.Duration) (string, error) {
	return storage.SignedURL(ctx, c.storage, rawURI, expiry)
}

// Metadata fetches object metadata.
func (c *Client) Metadata(ctx context.Context, rawURI string) (*storage.Metadata, error) {
	return storage.GetMetadata(ctx, c.storage, rawURI)
}

// Exists checks whether the object exists.
func (c *Client) Exists(ctx context.Context, rawURI string) (bool, error) {
	return storage.Exists(ctx, c.storage, rawURI)
}

// Delete removes the object. Deleting an absent object is not an error.
func (c *Client) Delete(ctx context.Context, rawURI string) error {
	return storage.Delete(ctx, c.storage, rawURI)
}

// NewUploadSession creates an upload session bound to the provider that
// claims rawURI. The returned URI is the parsed form to pass to Start.
func (c *Client) NewUploadSession(rawURI string) (*storage.UploadSession, uri.URI, error) {
	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, uri.URI{}, err
	}
	p, err := c.storage.ResolveForURI(u)
	if err != nil {
		return nil, uri.URI{}, err
	}
	return storage.NewUploadSession(p), u, nil
}

// Upload transfers r to rawURI in one call, reporting progress to onProgress
// when non-nil. Convenience over NewUploadSession for callers that never
// pause or cancel.
func (c *Client) Upload(ctx context.Context, rawURI string, r io.Reader, opts storage.UploadOptions, onProgress storage.ProgressFunc) (*storage.UploadResult, error) {
	sess, u, err := c.NewUploadSession(rawURI)
	if err != nil {
		return nil, err
	}
	if onProgress != nil {
		sess.OnProgress(onProgress)
	}
	return sess.Start(ctx, u, r, opts)
}

// Transcribe runs a transcription request against the named provider, or the
// configured default when providerName is empty.
func (c *Client) Transcribe(ctx context.Context, req transcription.Request, providerName string) (*transcription.Result, error) {
	return transcription.Transcribe(ctx, c.transcription, req, providerName)
}
