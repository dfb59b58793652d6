// Package openai implements the transcription contract on an OpenAI-style
// chat completion API. The model is prompted to transcribe the media at a
// URL and return a transcript as structured JSON constrained by a response
// schema; timestamps arrive as MM:SS or HH:MM:SS strings and are parsed into
// seconds. Any parseable media URI is accepted, including plain HTTPS URLs.
package openai

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	oai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/logger"
	"github.com/attestia/mediakit/provider"
	"github.com/attestia/mediakit/transcription"
	"github.com/attestia/mediakit/uri"
)

const (
	// Name is the provider's registry name.
	Name = "openai"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// maxDurationSeconds reflects practical context limits for prompted
	// transcription, not an API constant.
	maxDurationSeconds = 7200
)

// Config holds OpenAI provider configuration.
type Config struct {
	// APIKey authenticates against the API.
	APIKey string `mapstructure:"api_key" json:"api_key"`
	// BaseURL points at an OpenAI-compatible endpoint. Empty uses the
	// official API.
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// Model is the chat model prompted for transcription.
	Model string `mapstructure:"model" json:"model"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
}

// Provider is the multimodal chat-model backend.
type Provider struct {
	cfg    Config
	log    *logger.Logger
	client *provider.Lazy[*oai.Client]
}

var _ transcription.Provider = (*Provider)(nil)

// New creates an OpenAI provider. The client is constructed lazily.
func New(cfg Config) *Provider {
	cfg.ApplyDefaults()
	p := &Provider{
		cfg: cfg,
		log: logger.Get("transcription.openai"),
	}
	p.client = provider.NewLazy(func(ctx context.Context) (*oai.Client, error) {
		if cfg.APIKey == "" {
			return nil, errors.PermissionDenied("openai api").
				WithDetail("reason", "api key not configured")
		}
		clientCfg := oai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		return oai.NewClientWithConfig(clientCfg), nil
	})
	return p
}

func (p *Provider) Name() string        { return Name }
func (p *Provider) DisplayName() string { return "OpenAI" }

func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Get(ctx)
	return err == nil
}

func (p *Provider) Capabilities() transcription.Capabilities {
	return transcription.Capabilities{
		Diarization:               true,
		Streaming:                 false,
		LanguageDetection:         true,
		LanguageCount:             57,
		DirectURLInput:            true,
		MaxDurationSeconds:        maxDurationSeconds,
		Multimodal:                true,
		RequiresProductionStorage: false,
	}
}

// CanHandle accepts any URI the uri model recognizes; direct HTTPS URLs
// included.
func (p *Provider) CanHandle(req transcription.Request) bool {
	_, err := uri.Parse(req.MediaURI)
	if err != nil {
		// Plain HTTPS URLs outside the object-store forms are still fine
		// for a model that fetches by URL.
		return strings.HasPrefix(req.MediaURI, "https://")
	}
	return true
}

// wireSegment is the model's segment shape before timestamp parsing.
type wireSegment struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"`
}

// wireResult is the schema-constrained output shape.
type wireResult struct {
	Text     string        `json:"text"`
	Language string        `json:"language,omitempty"`
	Summary  string        `json:"summary,omitempty"`
	Segments []wireSegment `json:"segments"`
}

// Transcribe prompts the model with the media URL and decodes the
// schema-constrained JSON reply into the uniform result.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	client, err := p.client.Get(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleSystem, Content: systemPrompt(req)},
			{Role: oai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		ResponseFormat: &oai.ChatCompletionResponseFormat{
			Type: oai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &oai.ChatCompletionResponseFormatJSONSchema{
				Name:   "transcription",
				Schema: resultSchema(),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, mapError(err, req.MediaURI)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.TransientIO("openai transcribe", stderrors.New("empty completion"))
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &wire); err != nil {
		return nil, errors.TransientIO("decode transcription output", err)
	}

	res, err := buildResult(&wire)
	if err != nil {
		return nil, err
	}
	if res.Language == "" {
		res.Language = req.Language
	}
	res.Provider = Name
	p.log.Debug("transcription decoded", map[string]interface{}{
		"segments": len(res.Segments),
		"model":    p.cfg.Model,
	})
	return res, nil
}

func systemPrompt(req transcription.Request) string {
	var b strings.Builder
	b.WriteString("You are a precise transcription engine. Transcribe the media at the given URL verbatim. ")
	b.WriteString("Timestamps use MM:SS for media under an hour and HH:MM:SS otherwise. ")
	if req.EnableDiarization {
		fmt.Fprintf(&b, "Attribute each segment to a speaker label (Speaker 1, Speaker 2, ...), at most %d speakers. ", req.MaxSpeakers)
	}
	if req.EnableSummary {
		b.WriteString("Include a short summary of the content. ")
	}
	if req.Language != "" && req.Language != "auto" {
		fmt.Fprintf(&b, "The audio language is %s. ", req.Language)
	} else {
		b.WriteString("Detect the language and report it as a BCP-47 tag. ")
	}
	return b.String()
}

func userPrompt(req transcription.Request) string {
	return "Transcribe this media: " + req.MediaURI
}

func resultSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"text":     {Type: jsonschema.String},
			"language": {Type: jsonschema.String},
			"summary":  {Type: jsonschema.String},
			"segments": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"start":   {Type: jsonschema.String},
						"end":     {Type: jsonschema.String},
						"text":    {Type: jsonschema.String},
						"speaker": {Type: jsonschema.String},
					},
					Required: []string{"start", "end", "text"},
				},
			},
		},
		Required: []string{"text", "segments"},
	}
}

// buildResult converts the wire shape into the uniform result, parsing
// clock-style timestamps into seconds.
func buildResult(wire *wireResult) (*transcription.Result, error) {
	res := &transcription.Result{
		Text:     wire.Text,
		Language: wire.Language,
		Summary:  wire.Summary,
	}

	speakerIDs := make(map[string]string)
	for i, ws := range wire.Segments {
		start, err := parseTimestamp(ws.Start)
		if err != nil {
			return nil, errors.TransientIO("parse segment timestamp", err).WithDetail("value", ws.Start)
		}
		end, err := parseTimestamp(ws.End)
		if err != nil {
			return nil, errors.TransientIO("parse segment timestamp", err).WithDetail("value", ws.End)
		}
		if end < start {
			end = start
		}

		seg := transcription.Segment{
			ID:    i,
			Start: start,
			End:   end,
			Text:  ws.Text,
		}
		if ws.Speaker != "" {
			id, ok := speakerIDs[ws.Speaker]
			if !ok {
				id = strconv.Itoa(len(speakerIDs) + 1)
				speakerIDs[ws.Speaker] = id
				res.Speakers = append(res.Speakers, transcription.Speaker{ID: id, Name: ws.Speaker})
			}
			seg.SpeakerID = id
		}
		res.Segments = append(res.Segments, seg)

		if end > res.Duration {
			res.Duration = end
		}
	}
	return res, nil
}

// parseTimestamp converts "MM:SS" or "HH:MM:SS" into seconds. Fractional
// seconds are accepted in the final component.
func parseTimestamp(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("timestamp %q: want MM:SS or HH:MM:SS", s)
	}
	var total float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp %q: %w", s, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("timestamp %q: negative component", s)
		}
		total = total*60 + v
	}
	return total, nil
}

// mapError translates API transport errors into the shared taxonomy.
func mapError(err error, mediaURI string) error {
	var apiErr *oai.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return errors.RateLimited("openai", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.PermissionDenied("openai api").WithCause(err)
		case http.StatusRequestEntityTooLarge:
			return errors.MediaTooLong(Name, maxDurationSeconds).WithCause(err)
		case http.StatusBadRequest:
			return errors.CannotHandleRequest(Name, apiErr.Message).WithCause(err)
		}
	}
	var reqErr *oai.RequestError
	if stderrors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return errors.RateLimited("openai", err)
	}
	return errors.TransientIO("openai transcribe", err).WithDetail("media_uri", mediaURI)
}
