// Package gspeech implements the transcription contract on the Google Cloud
// Speech-to-Text v1 batch API. Media must already live in Google Cloud
// Storage; only gs:// URIs are accepted. Diarization groups word-level
// timestamps into segments by contiguous speaker tag runs.
package gspeech

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/logger"
	"github.com/attestia/mediakit/provider"
	"github.com/attestia/mediakit/transcription"
	"github.com/attestia/mediakit/uri"
)

const (
	// Name is the provider's registry name.
	Name = "gspeech"

	// maxDurationSeconds is the batch API's long-running audio limit.
	maxDurationSeconds = 28800

	defaultPollInterval = 5 * time.Second

	// fallbackLanguage is used when the request asks for auto-detection,
	// which the v1 batch API does not offer.
	fallbackLanguage = "en-US"
)

// Config holds Google Speech provider configuration.
type Config struct {
	// CredentialsFile is a path to a service account key. Empty uses
	// Application Default Credentials.
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`
	// PollInterval is how often long-running operations are polled.
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
}

// Provider is the Google Cloud Speech-to-Text backend.
type Provider struct {
	cfg    Config
	log    *logger.Logger
	client *provider.Lazy[*speech.Service]
}

var _ transcription.Provider = (*Provider)(nil)

// New creates a Google Speech provider. The service client is constructed
// lazily on first use.
func New(cfg Config) *Provider {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	p := &Provider{
		cfg: cfg,
		log: logger.Get("transcription.gspeech"),
	}
	p.client = provider.NewLazy(func(ctx context.Context) (*speech.Service, error) {
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		svc, err := speech.NewService(ctx, opts...)
		if err != nil {
			return nil, errors.TransientIO("speech client init", err)
		}
		return svc, nil
	})
	return p
}

func (p *Provider) Name() string        { return Name }
func (p *Provider) DisplayName() string { return "Google Cloud Speech-to-Text" }

func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Get(ctx)
	return err == nil
}

func (p *Provider) Capabilities() transcription.Capabilities {
	return transcription.Capabilities{
		Diarization:               true,
		Streaming:                 false,
		LanguageDetection:         false,
		LanguageCount:             125,
		DirectURLInput:            false,
		MaxDurationSeconds:        maxDurationSeconds,
		Multimodal:                false,
		RequiresProductionStorage: true,
	}
}

// CanHandle accepts gs:// URIs only; the batch API reads straight from GCS.
func (p *Provider) CanHandle(req transcription.Request) bool {
	u, err := uri.Parse(req.MediaURI)
	if err != nil {
		return false
	}
	return u.Scheme == uri.SchemeGS
}

// Transcribe submits a long-running recognition job and polls it to
// completion.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	svc, err := p.client.Get(ctx)
	if err != nil {
		return nil, err
	}

	lang := req.Language
	if lang == "" || lang == "auto" {
		lang = fallbackLanguage
	}

	cfg := &speech.RecognitionConfig{
		LanguageCode:               lang,
		EnableAutomaticPunctuation: true,
		EnableWordTimeOffsets:      true,
	}
	if req.EnableDiarization {
		cfg.DiarizationConfig = &speech.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MaxSpeakerCount:          int64(req.MaxSpeakers),
		}
	}

	op, err := svc.Speech.Longrunningrecognize(&speech.LongRunningRecognizeRequest{
		Config: cfg,
		Audio:  &speech.RecognitionAudio{Uri: req.MediaURI},
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err, req.MediaURI)
	}

	p.log.Debug("recognition job submitted", map[string]interface{}{
		"operation": op.Name,
		"media_uri": req.MediaURI,
	})

	resp, err := p.await(ctx, svc, op.Name)
	if err != nil {
		return nil, err
	}

	res := buildResult(resp, req)
	res.Language = lang
	res.Provider = Name
	return res, nil
}

// await polls the long-running operation until it resolves or ctx is done.
func (p *Provider) await(ctx context.Context, svc *speech.Service, name string) (*speech.LongRunningRecognizeResponse, error) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		op, err := svc.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return nil, mapError(err, name)
		}
		if op.Done {
			if op.Error != nil {
				return nil, mapOperationError(op.Error)
			}
			var resp speech.LongRunningRecognizeResponse
			if err := json.Unmarshal(op.Response, &resp); err != nil {
				return nil, errors.TransientIO("decode recognition response", err)
			}
			return &resp, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.TransientIO("await recognition", ctx.Err())
		case <-ticker.C:
		}
	}
}

// buildResult flattens the API response into the uniform result shape. With
// diarization enabled the last result carries every word tagged with a
// speaker; segments are built from contiguous runs of one speaker tag.
func buildResult(resp *speech.LongRunningRecognizeResponse, req transcription.Request) *transcription.Result {
	var (
		parts    []string
		duration float64
	)
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if alt.Transcript != "" {
			parts = append(parts, strings.TrimSpace(alt.Transcript))
		}
		if end, err := parseOffset(r.ResultEndTime); err == nil && end > duration {
			duration = end
		}
	}

	res := &transcription.Result{
		Text:     strings.Join(parts, " "),
		Duration: duration,
	}

	if req.EnableDiarization {
		res.Segments = diarizedSegments(resp)
	} else {
		res.Segments = plainSegments(resp)
	}
	res.Speakers = transcription.SpeakersFromSegments(res.Segments)
	return res
}

// plainSegments emits one segment per recognition result.
func plainSegments(resp *speech.LongRunningRecognizeResponse) []transcription.Segment {
	var segments []transcription.Segment
	var prevEnd float64
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		end, _ := parseOffset(r.ResultEndTime)
		segments = append(segments, transcription.Segment{
			ID:         len(segments),
			Start:      prevEnd,
			End:        end,
			Text:       strings.TrimSpace(alt.Transcript),
			Confidence: alt.Confidence,
		})
		prevEnd = end
	}
	return segments
}

// diarizedSegments groups the speaker-tagged word stream of the final result
// into segments by contiguous runs of one speaker tag. Segment order follows
// the word stream, which is not guaranteed globally sorted by start time
// around speaker-change boundaries.
func diarizedSegments(resp *speech.LongRunningRecognizeResponse) []transcription.Segment {
	if len(resp.Results) == 0 {
		return nil
	}
	last := resp.Results[len(resp.Results)-1]
	if len(last.Alternatives) == 0 || len(last.Alternatives[0].Words) == 0 {
		return plainSegments(resp)
	}

	var segments []transcription.Segment
	var cur *transcription.Segment
	for _, w := range last.Alternatives[0].Words {
		start, _ := parseOffset(w.StartTime)
		end, _ := parseOffset(w.EndTime)
		tag := strconv.FormatInt(w.SpeakerTag, 10)

		if cur == nil || cur.SpeakerID != tag {
			if cur != nil {
				segments = append(segments, *cur)
			}
			cur = &transcription.Segment{
				ID:        len(segments),
				Start:     start,
				End:       end,
				Text:      w.Word,
				SpeakerID: tag,
			}
			continue
		}
		cur.Text += " " + w.Word
		cur.End = end
	}
	if cur != nil {
		segments = append(segments, *cur)
	}
	return segments
}

// parseOffset converts API duration strings like "1.400s" into seconds.
func parseOffset(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

// mapError translates Speech API transport errors into the shared taxonomy.
func mapError(err error, subject string) error {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return errors.RateLimited("speech", err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errors.PermissionDenied(subject).WithCause(err)
		case http.StatusNotFound:
			return errors.NotFound(subject).WithCause(err)
		case http.StatusBadRequest:
			return errors.CannotHandleRequest(Name, apiErr.Message).WithCause(err)
		}
	}
	return errors.TransientIO("speech recognize", err).WithDetail("subject", subject)
}

// mapOperationError translates a failed long-running operation's status.
// gRPC status codes: 3 invalid argument, 8 resource exhausted, 11 out of
// range (the API reports over-limit audio as 3 or 11 with a duration
// message).
func mapOperationError(st *speech.Status) error {
	switch st.Code {
	case 8:
		return errors.RateLimited("speech", stderrors.New(st.Message))
	case 11:
		return errors.MediaTooLong(Name, maxDurationSeconds).WithCause(stderrors.New(st.Message))
	case 3:
		msg := strings.ToLower(st.Message)
		if strings.Contains(msg, "duration") || strings.Contains(msg, "too long") {
			return errors.MediaTooLong(Name, maxDurationSeconds).WithCause(stderrors.New(st.Message))
		}
		return errors.CannotHandleRequest(Name, st.Message)
	}
	return errors.TransientIO("speech recognize", stderrors.New(st.Message))
}
