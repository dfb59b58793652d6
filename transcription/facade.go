package transcription

import (
	"context"
	"time"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/logger"
	"github.com/attestia/mediakit/observability"
)

// Transcribe resolves a provider by name (or the registry default when name
// is empty), checks the provider accepts the request, and delegates. The
// provider's result and errors pass through unchanged; retry policy belongs
// to the caller.
func Transcribe(ctx context.Context, reg *Registry, req Request, providerName string) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, "transcription.transcribe")
	defer span.End()

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	p, err := reg.Resolve(providerName)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrProvider, p.Name())
	observability.SetSpanAttribute(ctx, observability.AttrURI, req.MediaURI)

	if !p.CanHandle(req) {
		err := errors.CannotHandleRequest(p.Name(), "media URI or options outside provider limits").
			WithDetail("media_uri", req.MediaURI)
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	log := logger.Get("transcription")
	log.Info("transcription started", map[string]interface{}{
		"provider":    p.Name(),
		"media_uri":   req.MediaURI,
		"language":    req.Language,
		"diarization": req.EnableDiarization,
	})

	start := time.Now()
	res, err := p.Transcribe(ctx, req)
	if err != nil {
		observability.SetSpanError(ctx, err)
		log.WithError(err).Error("transcription failed", map[string]interface{}{"provider": p.Name()})
		return nil, err
	}
	if res.ProcessingTimeMs == 0 {
		res.ProcessingTimeMs = time.Since(start).Milliseconds()
	}
	if res.Provider == "" {
		res.Provider = p.Name()
	}

	log.Info("transcription complete", map[string]interface{}{
		"provider":           p.Name(),
		"segments":           len(res.Segments),
		"speakers":           len(res.Speakers),
		"processing_time_ms": res.ProcessingTimeMs,
	})
	return res, nil
}
