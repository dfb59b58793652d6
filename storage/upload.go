package storage

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/logger"
	"github.com/attestia/mediakit/observability"
	"github.com/attestia/mediakit/uri"
)

// UploadState is the lifecycle state of an upload session.
type UploadState string

const (
	// UploadPending is the state of a session that has not started yet.
	UploadPending  UploadState = "pending"
	UploadRunning  UploadState = "running"
	UploadPaused   UploadState = "paused"
	UploadSuccess  UploadState = "success"
	UploadError    UploadState = "error"
	UploadCanceled UploadState = "canceled"
)

// Terminal reports whether no further transition is possible from s.
func (s UploadState) Terminal() bool {
	return s == UploadSuccess || s == UploadError || s == UploadCanceled
}

// UploadProgress is a snapshot of an in-flight transfer.
type UploadProgress struct {
	BytesTransferred int64       `json:"bytes_transferred"`
	TotalBytes       int64       `json:"total_bytes"`
	State            UploadState `json:"state"`
}

// Percent derives the completion percentage. Always recomputed from the byte
// counts so it cannot drift from them.
func (p UploadProgress) Percent() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	return float64(p.BytesTransferred) / float64(p.TotalBytes) * 100
}

// ProgressFunc observes progress snapshots. Invoked synchronously on every
// state transition and every chunk.
type ProgressFunc func(UploadProgress)

// UploadResult is the outcome of a completed upload.
type UploadResult struct {
	// URI addresses the stored object.
	URI uri.URI `json:"uri"`
	// DownloadURL grants read access: a signed URL when the provider
	// supports them, the public HTTPS form otherwise.
	DownloadURL string `json:"download_url"`
}

// UploadSession wraps one provider's upload primitive with pause, resume,
// cancel, and progress tracking. A session handles exactly one transfer;
// create a new session per upload. All mutators are safe to call from
// goroutines other than the one running Start.
type UploadSession struct {
	id    string
	store Storage
	log   *logger.Logger

	mu          sync.Mutex
	cond        *sync.Cond
	state       UploadState
	transferred int64
	total       int64
	onProgress  ProgressFunc
	started     bool
	abort       func() error
}

// NewUploadSession creates an idle session bound to one provider.
func NewUploadSession(store Storage) *UploadSession {
	s := &UploadSession{
		id:    uuid.NewString(),
		store: store,
		state: UploadPending,
		log:   logger.Get("upload"),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// ID returns the session's unique identifier.
func (s *UploadSession) ID() string { return s.id }

// OnProgress registers the session's single observer, replacing any previous
// one. Register before Start to see every snapshot.
func (s *UploadSession) OnProgress(fn ProgressFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProgress = fn
}

// State returns a point-in-time progress snapshot.
func (s *UploadSession) State() UploadProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Pause suspends the transfer between chunks. No-op if the provider lacks
// PauseResume, if the session is not running, or after a terminal state.
func (s *UploadSession) Pause() {
	if !s.store.Capabilities().PauseResume {
		return
	}
	s.mu.Lock()
	if s.state != UploadRunning {
		s.mu.Unlock()
		return
	}
	s.state = UploadPaused
	snap, fn := s.snapshotLocked(), s.onProgress
	s.mu.Unlock()

	s.log.Debug("upload paused", map[string]interface{}{"session_id": s.id})
	notify(fn, snap)
}

// Resume continues a paused transfer. The observer may see the last snapshot
// repeated. No-op unless the session is paused.
func (s *UploadSession) Resume() {
	s.mu.Lock()
	if s.state != UploadPaused {
		s.mu.Unlock()
		return
	}
	s.state = UploadRunning
	s.cond.Broadcast()
	snap, fn := s.snapshotLocked(), s.onProgress
	s.mu.Unlock()

	s.log.Debug("upload resumed", map[string]interface{}{"session_id": s.id})
	notify(fn, snap)
}

// Cancel aborts the transfer. Further writes are rejected once the underlying
// transport acknowledges the abort. No-op on completed or failed sessions.
func (s *UploadSession) Cancel() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = UploadCanceled
	s.cond.Broadcast()
	snap, fn, abort := s.snapshotLocked(), s.onProgress, s.abort
	s.mu.Unlock()

	s.log.Info("upload canceled", map[string]interface{}{"session_id": s.id})
	if abort != nil {
		_ = abort()
	}
	notify(fn, snap)
}

// Start runs the transfer, blocking until it completes, fails, or is
// canceled. A session can start at most one transfer in its lifetime; a
// second call fails with UPLOAD_ALREADY_IN_PROGRESS regardless of how the
// first ended.
func (s *UploadSession) Start(ctx context.Context, u uri.URI, r io.Reader, opts UploadOptions) (*UploadResult, error) {
	ctx, span := observability.StartSpan(ctx, "storage.upload")
	defer span.End()

	opts.ApplyDefaults()

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil, errors.UploadInProgress(s.id)
	}
	// Cancel before Start is the only way to reach a terminal state without
	// a transfer; the session stays dead.
	if s.state.Terminal() {
		s.mu.Unlock()
		return nil, errors.UploadCanceled(s.id)
	}
	s.started = true
	s.state = UploadRunning
	s.total = opts.TotalBytes
	snap, fn := s.snapshotLocked(), s.onProgress
	s.mu.Unlock()
	notify(fn, snap)

	caps := s.store.Capabilities()
	if caps.MaxFileSize > 0 && opts.TotalBytes > caps.MaxFileSize {
		return nil, s.fail(errors.InvalidInput("upload exceeds provider max file size").
			WithDetail("max_file_size", caps.MaxFileSize).
			WithDetail("total_bytes", opts.TotalBytes))
	}

	observability.SetSpanAttribute(ctx, observability.AttrProvider, s.store.Name())
	observability.SetSpanAttribute(ctx, observability.AttrURI, u.Raw)
	observability.SetSpanAttribute(ctx, observability.AttrBytes, opts.TotalBytes)
	s.log.Info("upload started", map[string]interface{}{
		"session_id": s.id,
		"provider":   s.store.Name(),
		"uri":        u.Raw,
		"bytes":      opts.TotalBytes,
	})

	w, err := s.store.NewUpload(ctx, u, opts)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	s.abort = w.Abort
	s.mu.Unlock()

	buf := make([]byte, opts.ChunkSize)
	for {
		if err := s.gate(); err != nil {
			_ = w.Abort()
			return nil, err
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				_ = w.Abort()
				return nil, s.fail(errors.TransientIO("upload write", werr).WithDetail("uri", u.Raw))
			}
			s.advance(int64(n))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = w.Abort()
			return nil, s.fail(errors.TransientIO("upload read", rerr))
		}
	}

	if err := w.Close(); err != nil {
		return nil, s.fail(errors.TransientIO("upload commit", err).WithDetail("uri", u.Raw))
	}

	downloadURL, err := s.resolveDownloadURL(ctx, u, caps)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	// Cancel may have raced the final chunk; the terminal state wins.
	if s.state == UploadCanceled {
		s.mu.Unlock()
		return nil, errors.UploadCanceled(s.id)
	}
	s.state = UploadSuccess
	s.abort = nil
	snap, fn = s.snapshotLocked(), s.onProgress
	s.mu.Unlock()
	notify(fn, snap)

	s.log.Info("upload complete", map[string]interface{}{
		"session_id": s.id,
		"uri":        u.Raw,
	})
	return &UploadResult{URI: u, DownloadURL: downloadURL}, nil
}

// gate blocks while paused and reports cancellation. Called between chunks.
func (s *UploadSession) gate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.state == UploadPaused {
		s.cond.Wait()
	}
	if s.state == UploadCanceled {
		return errors.UploadCanceled(s.id)
	}
	return nil
}

func (s *UploadSession) advance(n int64) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.transferred += n
	snap, fn := s.snapshotLocked(), s.onProgress
	s.mu.Unlock()
	notify(fn, snap)
}

func (s *UploadSession) fail(cause error) error {
	s.mu.Lock()
	if s.state == UploadCanceled {
		s.mu.Unlock()
		return errors.UploadCanceled(s.id)
	}
	if s.state.Terminal() {
		s.mu.Unlock()
		return cause
	}
	s.state = UploadError
	s.abort = nil
	snap, fn := s.snapshotLocked(), s.onProgress
	s.mu.Unlock()
	notify(fn, snap)

	s.log.WithError(cause).Error("upload failed", map[string]interface{}{"session_id": s.id})
	return cause
}

func (s *UploadSession) resolveDownloadURL(ctx context.Context, u uri.URI, caps Capabilities) (string, error) {
	if caps.SignedURLs {
		return s.store.SignedURL(ctx, u, DefaultSignedURLExpiry)
	}
	return uri.Build(uri.SchemeHTTPS, u.Bucket, u.Path)
}

func (s *UploadSession) snapshotLocked() UploadProgress {
	return UploadProgress{
		BytesTransferred: s.transferred,
		TotalBytes:       s.total,
		State:            s.state,
	}
}

func notify(fn ProgressFunc, snap UploadProgress) {
	if fn != nil {
		fn(snap)
	}
}
