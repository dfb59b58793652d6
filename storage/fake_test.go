package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/uri"
)

// fakeStorage is an in-memory Storage used across the package tests.
type fakeStorage struct {
	name   string
	scheme uri.Scheme
	caps   Capabilities

	mu      sync.Mutex
	objects map[string][]byte

	downloadErr error
	uploadErr   error
	writeErr    error
	closeErr    error
	signErr     error

	// onWrite runs inside UploadWriter.Write, before bytes land. Lets tests
	// pause or cancel a session mid-transfer deterministically.
	onWrite func()

	aborted bool
}

func newFakeStorage(name string, scheme uri.Scheme, caps Capabilities) *fakeStorage {
	return &fakeStorage{
		name:    name,
		scheme:  scheme,
		caps:    caps,
		objects: make(map[string][]byte),
	}
}

var _ Storage = (*fakeStorage)(nil)

func (f *fakeStorage) Name() string                         { return f.name }
func (f *fakeStorage) DisplayName() string                  { return "Fake " + f.name }
func (f *fakeStorage) IsAvailable(ctx context.Context) bool { return true }
func (f *fakeStorage) Scheme() uri.Scheme                   { return f.scheme }
func (f *fakeStorage) Capabilities() Capabilities           { return f.caps }
func (f *fakeStorage) CanHandle(u uri.URI) bool             { return u.Scheme == f.scheme }

func (f *fakeStorage) key(u uri.URI) string { return u.Bucket + "/" + u.Path }

func (f *fakeStorage) Download(ctx context.Context, u uri.URI) (io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[f.key(u)]
	if !ok {
		return nil, errors.NotFound(u.Raw)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) SignedURL(ctx context.Context, u uri.URI, expiry time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	if !f.caps.SignedURLs {
		return "", errors.UnsupportedOperation(f.name, "signed URLs")
	}
	return fmt.Sprintf("https://signed.example.com/%s?expires=%d", f.key(u), int(expiry.Seconds())), nil
}

func (f *fakeStorage) Metadata(ctx context.Context, u uri.URI) (*Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[f.key(u)]
	if !ok {
		return nil, errors.NotFound(u.Raw)
	}
	return &Metadata{Name: u.Path, Size: int64(len(data))}, nil
}

func (f *fakeStorage) Exists(ctx context.Context, u uri.URI) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[f.key(u)]
	return ok, nil
}

func (f *fakeStorage) Delete(ctx context.Context, u uri.URI) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, f.key(u))
	return nil
}

func (f *fakeStorage) NewUpload(ctx context.Context, u uri.URI, opts UploadOptions) (UploadWriter, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &fakeWriter{store: f, key: f.key(u)}, nil
}

func (f *fakeStorage) put(u uri.URI, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[f.key(u)] = data
}

type fakeWriter struct {
	store *fakeStorage
	key   string
	buf   bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	if w.store.onWrite != nil {
		w.store.onWrite()
	}
	if w.store.writeErr != nil {
		return 0, w.store.writeErr
	}
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	if w.store.closeErr != nil {
		return w.store.closeErr
	}
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.objects[w.key] = w.buf.Bytes()
	return nil
}

func (w *fakeWriter) Abort() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.aborted = true
	return nil
}
