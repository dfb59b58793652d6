package gspeech

import (
	"testing"

	speech "google.golang.org/api/speech/v1"

	"github.com/attestia/mediakit/errors"
	"github.com/attestia/mediakit/transcription"
)

func TestCanHandle(t *testing.T) {
	p := New(Config{})
	tests := []struct {
		uri  string
		want bool
	}{
		{"gs://bucket/audio.wav", true},
		{"s3://bucket/audio.wav", false},
		{"https://storage.googleapis.com/bucket/audio.wav", false},
		{"https://example.com/audio.mp3", false},
		{"not a uri", false},
	}
	for _, tt := range tests {
		if got := p.CanHandle(transcription.Request{MediaURI: tt.uri}); got != tt.want {
			t.Errorf("CanHandle(%q) = %v, want %v", tt.uri, got, tt.want)
		}
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"1.400s", 1.4},
		{"0s", 0},
		{"90s", 90},
	}
	for _, tt := range tests {
		got, err := parseOffset(tt.in)
		if err != nil {
			t.Errorf("parseOffset(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOffset(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMapOperationError(t *testing.T) {
	tests := []struct {
		name     string
		status   *speech.Status
		wantCode errors.ErrorCode
		retry    bool
	}{
		{"resource exhausted", &speech.Status{Code: 8, Message: "quota exceeded"}, errors.ErrCodeRateLimited, true},
		{"out of range", &speech.Status{Code: 11, Message: "audio out of range"}, errors.ErrCodeMediaTooLong, false},
		{"over duration limit", &speech.Status{Code: 3, Message: "audio duration exceeds limit"}, errors.ErrCodeMediaTooLong, false},
		{"audio too long", &speech.Status{Code: 3, Message: "Audio too long for batch recognition"}, errors.ErrCodeMediaTooLong, false},
		{"bad encoding", &speech.Status{Code: 3, Message: "unsupported encoding"}, errors.ErrCodeCannotHandleRequest, false},
		{"internal", &speech.Status{Code: 13, Message: "internal error"}, errors.ErrCodeTransientIO, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapOperationError(tt.status)
			if !errors.IsCode(err, tt.wantCode) {
				t.Fatalf("mapOperationError(%+v) = %v, want code %s", tt.status, err, tt.wantCode)
			}
			if errors.IsRetryable(err) != tt.retry {
				t.Errorf("retryable = %v, want %v", errors.IsRetryable(err), tt.retry)
			}
		})
	}
}

func wordInfo(word, start, end string, tag int64) *speech.WordInfo {
	return &speech.WordInfo{Word: word, StartTime: start, EndTime: end, SpeakerTag: tag}
}

func TestDiarizedSegmentsGroupsSpeakerRuns(t *testing.T) {
	resp := &speech.LongRunningRecognizeResponse{
		Results: []*speech.SpeechRecognitionResult{
			{
				Alternatives: []*speech.SpeechRecognitionAlternative{
					{Transcript: "hello there general kenobi"},
				},
				ResultEndTime: "4.000s",
			},
			{
				Alternatives: []*speech.SpeechRecognitionAlternative{
					{
						Words: []*speech.WordInfo{
							wordInfo("hello", "0s", "0.500s", 1),
							wordInfo("there", "0.500s", "1.000s", 1),
							wordInfo("general", "1.200s", "2.000s", 2),
							wordInfo("kenobi", "2.000s", "2.800s", 2),
							wordInfo("hi", "3.000s", "3.400s", 1),
						},
					},
				},
			},
		},
	}

	segments := diarizedSegments(resp)
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(segments), segments)
	}

	want := []struct {
		speaker string
		text    string
		start   float64
		end     float64
	}{
		{"1", "hello there", 0, 1.0},
		{"2", "general kenobi", 1.2, 2.8},
		{"1", "hi", 3.0, 3.4},
	}
	for i, w := range want {
		seg := segments[i]
		if seg.SpeakerID != w.speaker || seg.Text != w.text || seg.Start != w.start || seg.End != w.end {
			t.Errorf("segment %d = %+v, want %+v", i, seg, w)
		}
		if seg.ID != i {
			t.Errorf("segment %d ID = %d", i, seg.ID)
		}
	}
}

func TestBuildResultSpeakerIntegrity(t *testing.T) {
	resp := &speech.LongRunningRecognizeResponse{
		Results: []*speech.SpeechRecognitionResult{
			{
				Alternatives: []*speech.SpeechRecognitionAlternative{
					{
						Transcript: "a b",
						Words: []*speech.WordInfo{
							wordInfo("a", "0s", "1s", 1),
							wordInfo("b", "1s", "2s", 2),
						},
					},
				},
				ResultEndTime: "2.000s",
			},
		},
	}

	res := buildResult(resp, transcription.Request{EnableDiarization: true})
	ids := make(map[string]bool)
	for _, sp := range res.Speakers {
		ids[sp.ID] = true
	}
	for _, seg := range res.Segments {
		if seg.SpeakerID != "" && !ids[seg.SpeakerID] {
			t.Errorf("segment references speaker %q missing from result", seg.SpeakerID)
		}
	}
	if res.Duration != 2.0 {
		t.Errorf("Duration = %v, want 2.0", res.Duration)
	}
}

func TestBuildResultPlainSegments(t *testing.T) {
	resp := &speech.LongRunningRecognizeResponse{
		Results: []*speech.SpeechRecognitionResult{
			{
				Alternatives: []*speech.SpeechRecognitionAlternative{
					{Transcript: " first part ", Confidence: 0.9},
				},
				ResultEndTime: "3.000s",
			},
			{
				Alternatives: []*speech.SpeechRecognitionAlternative{
					{Transcript: "second part", Confidence: 0.8},
				},
				ResultEndTime: "6.500s",
			},
		},
	}

	res := buildResult(resp, transcription.Request{})
	if res.Text != "first part second part" {
		t.Errorf("Text = %q", res.Text)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	if res.Segments[1].Start != 3.0 || res.Segments[1].End != 6.5 {
		t.Errorf("segment 1 times = [%v,%v], want [3,6.5]", res.Segments[1].Start, res.Segments[1].End)
	}
	if len(res.Speakers) != 0 {
		t.Errorf("plain path produced speakers: %+v", res.Speakers)
	}
}
