// Package s3 implements the storage contract for Amazon S3 and S3-compatible
// services such as MinIO. Objects are addressed as s3://bucket/key or the
// virtual-hosted HTTPS form. S3 has no client-driven resumable upload
// primitive at this granularity, so uploads stage in memory and commit as a
// single PutObject; pause is a no-op for this provider.
package s3

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/logger"
	"github.com/attestia/mediakit/provider"
	"github.com/attestia/mediakit/storage"
	"github.com/attestia/mediakit/uri"
)

// Name is the provider's registry name.
const Name = "s3"

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Config holds S3 provider configuration.
type Config struct {
	// Region is the AWS region.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID. Empty uses the default chain.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Provider is the Amazon S3 backend.
type Provider struct {
	cfg    Config
	log    *logger.Logger
	client *provider.Lazy[*awss3.Client]
}

var _ storage.Storage = (*Provider)(nil)

// New creates an S3 provider. The client is constructed lazily on first use.
func New(cfg Config) *Provider {
	cfg.ApplyDefaults()
	p := &Provider{
		cfg: cfg,
		log: logger.Get("storage.s3"),
	}
	p.client = provider.NewLazy(func(ctx context.Context) (*awss3.Client, error) {
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.AccessKey != "" && cfg.SecretKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, errors.TransientIO("s3 client init", err)
		}

		var s3Opts []func(*awss3.Options)
		if cfg.Endpoint != "" {
			s3Opts = append(s3Opts, func(o *awss3.Options) {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			})
		} else if cfg.ForcePathStyle {
			s3Opts = append(s3Opts, func(o *awss3.Options) {
				o.UsePathStyle = true
			})
		}
		return awss3.NewFromConfig(awsCfg, s3Opts...), nil
	})
	return p
}

func (p *Provider) Name() string        { return Name }
func (p *Provider) DisplayName() string { return "Amazon S3" }

// IsAvailable reports whether a client can be constructed with the current
// credential chain.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Get(ctx)
	return err == nil
}

func (p *Provider) Scheme() uri.Scheme { return uri.SchemeS3 }

func (p *Provider) Capabilities() storage.Capabilities {
	return storage.Capabilities{
		ResumableUpload: false,
		PauseResume:     false,
		SignedURLs:      true,
		Streaming:       true,
	}
}

// CanHandle claims s3:// URIs and the amazonaws.com HTTPS form.
func (p *Provider) CanHandle(u uri.URI) bool {
	if u.Scheme == uri.SchemeS3 {
		return true
	}
	return u.Scheme == uri.SchemeHTTPS && strings.Contains(u.Raw, ".amazonaws.com/")
}

func (p *Provider) Download(ctx context.Context, u uri.URI) (io.ReadCloser, error) {
	client, err := p.client.Get(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Path),
	})
	if err != nil {
		return nil, mapError(err, u, "download")
	}
	return out.Body, nil
}

func (p *Provider) SignedURL(ctx context.Context, u uri.URI, expiry time.Duration) (string, error) {
	client, err := p.client.Get(ctx)
	if err != nil {
		return "", err
	}
	presigner := awss3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Path),
	}, awss3.WithPresignExpires(expiry))
	if err != nil {
		return "", mapError(err, u, "presign")
	}
	return req.URL, nil
}

func (p *Provider) Metadata(ctx context.Context, u uri.URI) (*storage.Metadata, error) {
	client, err := p.client.Get(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Path),
	})
	if err != nil {
		return nil, mapError(err, u, "metadata")
	}
	md := &storage.Metadata{
		Name:        u.Path,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		md.Updated = *out.LastModified
	}
	return md, nil
}

func (p *Provider) Exists(ctx context.Context, u uri.URI) (bool, error) {
	_, err := p.Metadata(ctx, u)
	if err == nil {
		return true, nil
	}
	if errors.IsCode(err, errors.ErrCodeNotFound) {
		return false, nil
	}
	return false, err
}

// Delete removes the object. S3's DeleteObject already succeeds for absent
// keys, matching the contract.
func (p *Provider) Delete(ctx context.Context, u uri.URI) error {
	client, err := p.client.Get(ctx)
	if err != nil {
		return err
	}
	_, err = client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Path),
	})
	if err != nil {
		return mapError(err, u, "delete")
	}
	return nil
}

// NewUpload stages writes in memory and commits the object with a single
// PutObject on Close.
func (p *Provider) NewUpload(ctx context.Context, u uri.URI, opts storage.UploadOptions) (storage.UploadWriter, error) {
	client, err := p.client.Get(ctx)
	if err != nil {
		return nil, err
	}
	p.log.Debug("buffered upload opened", map[string]interface{}{"uri": u.Raw})
	return &uploadWriter{
		ctx:         ctx,
		client:      client,
		uri:         u,
		contentType: opts.ContentType,
	}, nil
}

type uploadWriter struct {
	ctx         context.Context
	client      *awss3.Client
	uri         uri.URI
	contentType string
	buf         bytes.Buffer
	done        bool
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, errors.TransientIO("s3 upload write", stderrors.New("writer is closed"))
	}
	return w.buf.Write(p)
}

func (w *uploadWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	_, err := w.client.PutObject(w.ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(w.uri.Bucket),
		Key:         aws.String(w.uri.Path),
		Body:        bytes.NewReader(w.buf.Bytes()),
		ContentType: aws.String(w.contentType),
	})
	if err != nil {
		return mapError(err, w.uri, "upload commit")
	}
	return nil
}

func (w *uploadWriter) Abort() error {
	w.done = true
	w.buf.Reset()
	return nil
}

// mapError translates AWS SDK errors into the shared taxonomy.
func mapError(err error, u uri.URI, operation string) error {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return errors.NotFound(u.Raw).WithCause(err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.PermissionDenied(u.Raw).WithCause(err)
		case "SlowDown", "TooManyRequests", "RequestLimitExceeded":
			return errors.RateLimited("s3", err)
		}
	}
	return errors.TransientIO("s3 "+operation, err).WithDetail("uri", u.Raw)
}
