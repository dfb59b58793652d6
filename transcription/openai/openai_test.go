package openai

import (
	"net/http"
	"testing"

	oai "github.com/sashabaranov/go-openai"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/transcription"
)

func TestCanHandle(t *testing.T) {
	p := New(Config{APIKey: "test"})
	tests := []struct {
		uri  string
		want bool
	}{
		{"gs://bucket/a.wav", true},
		{"s3://bucket/a.wav", true},
		{"https://storage.googleapis.com/bucket/a.wav", true},
		{"https://example.com/podcast.mp3", true},
		{"ftp://host/file", false},
		{"not a uri", false},
	}
	for _, tt := range tests {
		if got := p.CanHandle(transcription.Request{MediaURI: tt.uri}); got != tt.want {
			t.Errorf("CanHandle(%q) = %v, want %v", tt.uri, got, tt.want)
		}
	}
}

func TestMapError(t *testing.T) {
	apiErr := func(status int, message string) *oai.APIError {
		return &oai.APIError{HTTPStatusCode: status, Message: message}
	}
	tests := []struct {
		name     string
		err      error
		wantCode errors.ErrorCode
		retry    bool
	}{
		{"rate limited", apiErr(http.StatusTooManyRequests, "rate limit"), errors.ErrCodeRateLimited, true},
		{"unauthorized", apiErr(http.StatusUnauthorized, "bad key"), errors.ErrCodePermissionDenied, false},
		{"forbidden", apiErr(http.StatusForbidden, "no access"), errors.ErrCodePermissionDenied, false},
		{"payload too large", apiErr(http.StatusRequestEntityTooLarge, "media too large"), errors.ErrCodeMediaTooLong, false},
		{"bad request", apiErr(http.StatusBadRequest, "unsupported format"), errors.ErrCodeCannotHandleRequest, false},
		{"server error", apiErr(http.StatusInternalServerError, "oops"), errors.ErrCodeTransientIO, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "https://example.com/a.mp3")
			if !errors.IsCode(err, tt.wantCode) {
				t.Fatalf("mapError() = %v, want code %s", err, tt.wantCode)
			}
			if errors.IsRetryable(err) != tt.retry {
				t.Errorf("retryable = %v, want %v", errors.IsRetryable(err), tt.retry)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"00:00", 0, false},
		{"01:30", 90, false},
		{"1:02:03", 3723, false},
		{"00:05.5", 5.5, false},
		{" 02:00 ", 120, false},
		{"90", 0, true},
		{"1:2:3:4", 0, true},
		{"aa:bb", 0, true},
		{"-1:00", 0, true},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildResult(t *testing.T) {
	wire := &wireResult{
		Text:     "hello world goodbye",
		Language: "en",
		Summary:  "a greeting",
		Segments: []wireSegment{
			{Start: "00:00", End: "00:04", Text: "hello world", Speaker: "Speaker 1"},
			{Start: "00:04", End: "00:09", Text: "goodbye", Speaker: "Speaker 2"},
			{Start: "00:09", End: "01:00:01", Text: "outro", Speaker: "Speaker 1"},
		},
	}

	res, err := buildResult(wire)
	if err != nil {
		t.Fatalf("buildResult() error = %v", err)
	}
	if len(res.Segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(res.Segments))
	}
	if len(res.Speakers) != 2 {
		t.Fatalf("got %d speakers, want 2: %+v", len(res.Speakers), res.Speakers)
	}
	if res.Speakers[0].Name != "Speaker 1" || res.Speakers[1].Name != "Speaker 2" {
		t.Errorf("speaker names = %+v", res.Speakers)
	}

	// Same label maps to the same speaker ID.
	if res.Segments[0].SpeakerID != res.Segments[2].SpeakerID {
		t.Error("segments with one speaker label got different IDs")
	}

	// Every referenced speaker ID resolves.
	ids := make(map[string]bool)
	for _, sp := range res.Speakers {
		ids[sp.ID] = true
	}
	for _, seg := range res.Segments {
		if seg.SpeakerID != "" && !ids[seg.SpeakerID] {
			t.Errorf("segment %d references unknown speaker %q", seg.ID, seg.SpeakerID)
		}
	}

	if res.Duration != 3601 {
		t.Errorf("Duration = %v, want 3601", res.Duration)
	}
	if res.Summary != "a greeting" {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestBuildResultBadTimestamp(t *testing.T) {
	wire := &wireResult{
		Text:     "x",
		Segments: []wireSegment{{Start: "bogus", End: "00:01", Text: "x"}},
	}
	if _, err := buildResult(wire); err == nil {
		t.Fatal("buildResult() accepted an unparseable timestamp")
	}
}

func TestBuildResultEndBeforeStartClamped(t *testing.T) {
	wire := &wireResult{
		Text:     "x",
		Segments: []wireSegment{{Start: "00:10", End: "00:05", Text: "x"}},
	}
	res, err := buildResult(wire)
	if err != nil {
		t.Fatalf("buildResult() error = %v", err)
	}
	if res.Segments[0].End != res.Segments[0].Start {
		t.Errorf("End = %v, want clamped to Start %v", res.Segments[0].End, res.Segments[0].Start)
	}
}
