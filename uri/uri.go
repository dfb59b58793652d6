// Package uri models storage object identifiers of the form
// scheme://bucket/path and the HTTPS equivalents used by GCS and S3.
// Parsing and building are pure functions; no I/O is performed.
package uri

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/attestia/mediakit/errors"
)

// Scheme identifies the addressing scheme of a storage URI.
type Scheme string

const (
	SchemeGS    Scheme = "gs"
	SchemeS3    Scheme = "s3"
	SchemeHTTPS Scheme = "https"
)

// URI is an immutable parsed storage object identifier.
// Raw always round-trips through Parse -> Build for the gs and s3 schemes.
type URI struct {
	Scheme Scheme
	Bucket string
	Path   string
	Raw    string
}

// String returns the raw form the URI was parsed from.
func (u URI) String() string { return u.Raw }

var (
	gcsHTTPSRe = regexp.MustCompile(`^https://storage\.googleapis\.com/([^/]+)/(.+)$`)
	s3HTTPSRe  = regexp.MustCompile(`^https://([^/.]+)\.s3[.-]?([a-z0-9-]*)\.amazonaws\.com/(.+)$`)
)

// Parse recognizes gs://, s3://, and the GCS and S3 HTTPS URL forms.
// Matching is tried in a fixed priority order: gs, s3, gcs-https, s3-https;
// the first match wins. Returns UNSUPPORTED_URI_FORMAT if none match.
func Parse(raw string) (URI, error) {
	if bucket, path, ok := splitSchemeURI(raw, "gs://"); ok {
		return URI{Scheme: SchemeGS, Bucket: bucket, Path: path, Raw: raw}, nil
	}
	if bucket, path, ok := splitSchemeURI(raw, "s3://"); ok {
		return URI{Scheme: SchemeS3, Bucket: bucket, Path: path, Raw: raw}, nil
	}
	if m := gcsHTTPSRe.FindStringSubmatch(raw); m != nil {
		return URI{Scheme: SchemeHTTPS, Bucket: m[1], Path: m[2], Raw: raw}, nil
	}
	if m := s3HTTPSRe.FindStringSubmatch(raw); m != nil {
		return URI{Scheme: SchemeHTTPS, Bucket: m[1], Path: m[3], Raw: raw}, nil
	}
	return URI{}, errors.UnsupportedURI(raw)
}

// Build is the inverse of Parse for the gs and s3 schemes. The https scheme
// always builds the GCS HTTPS form; Build is deliberately not a perfect
// inverse of every parseable HTTPS shape.
func Build(scheme Scheme, bucket, path string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	switch scheme {
	case SchemeGS, SchemeS3:
		return fmt.Sprintf("%s://%s/%s", scheme, bucket, path), nil
	case SchemeHTTPS:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, path), nil
	default:
		return "", errors.UnsupportedURI(string(scheme) + "://" + bucket + "/" + path)
	}
}

// MustParse parses raw and panics on failure. For use in tests and
// package-level declarations with known-good literals.
func MustParse(raw string) URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func splitSchemeURI(raw, prefix string) (bucket, path string, ok bool) {
	if !strings.HasPrefix(raw, prefix) {
		return "", "", false
	}
	rest := raw[len(prefix):]
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}
