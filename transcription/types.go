package transcription

import (
	"sort"

	"github.com/attestia/mediakit/validation"
)

// DefaultLanguage is used when a request does not specify a language.
// "auto" asks the provider to detect the language where supported.
const DefaultLanguage = "auto"

// DefaultMaxSpeakers bounds diarization when the caller does not say how
// many voices to expect.
const DefaultMaxSpeakers = 6

// Capabilities describes what a transcription provider supports. Static per
// provider instance; never mutated after registration.
type Capabilities struct {
	// Diarization indicates the provider attributes segments to speakers.
	Diarization bool `json:"diarization"`
	// Streaming indicates partial results can be streamed.
	Streaming bool `json:"streaming"`
	// LanguageDetection indicates "auto" language is supported.
	LanguageDetection bool `json:"language_detection"`
	// LanguageCount is the number of languages the provider handles.
	LanguageCount int `json:"language_count"`
	// DirectURLInput indicates the provider accepts arbitrary HTTPS media
	// URLs, not only object-store URIs.
	DirectURLInput bool `json:"direct_url_input"`
	// MaxDurationSeconds is the longest accepted media. Zero means no limit.
	MaxDurationSeconds int `json:"max_duration_seconds,omitempty"`
	// Multimodal indicates the provider is a general model prompted into
	// transcription rather than a dedicated speech engine.
	Multimodal bool `json:"multimodal"`
	// RequiresProductionStorage indicates media must already live in a
	// cloud object store reachable by the provider.
	RequiresProductionStorage bool `json:"requires_production_storage"`
}

// Request holds parameters for a transcription call. Apply defaults before
// dispatch; the request is treated as immutable afterwards.
type Request struct {
	// MediaURI addresses the media to transcribe (gs://, s3://, or HTTPS).
	MediaURI string `json:"media_uri" validate:"required"`
	// Language is a BCP-47 tag or "auto" for detection.
	Language string `json:"language,omitempty"`
	// EnableDiarization requests speaker attribution.
	EnableDiarization bool `json:"enable_diarization,omitempty"`
	// MaxSpeakers bounds diarization. Only meaningful with EnableDiarization.
	MaxSpeakers int `json:"max_speakers,omitempty" validate:"gte=0"`
	// EnableSummary requests a short summary alongside the transcript.
	EnableSummary bool `json:"enable_summary,omitempty"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (r *Request) ApplyDefaults() {
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.EnableDiarization && r.MaxSpeakers == 0 {
		r.MaxSpeakers = DefaultMaxSpeakers
	}
}

// Validate checks the request against its declared constraints.
func (r *Request) Validate() error {
	return validation.Struct(r)
}

// Segment is a time-aligned portion of a transcript.
type Segment struct {
	// ID is unique within one result.
	ID int `json:"id"`
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds. Never before Start.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
	// SpeakerID attributes the segment to a speaker in Result.Speakers.
	SpeakerID string `json:"speaker_id,omitempty"`
	// Confidence is the provider's confidence in [0,1], when reported.
	Confidence float64 `json:"confidence,omitempty"`
}

// Speaker is a voice identified during diarization.
type Speaker struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Result is the uniform transcription output every provider produces.
// Segment.SpeakerID values always resolve to an entry in Speakers.
type Result struct {
	// Text is the full transcript.
	Text string `json:"text"`
	// Segments are time-aligned portions. Within the diarization path,
	// segments are grouped by contiguous speaker runs and are not
	// guaranteed globally sorted by start time.
	Segments []Segment `json:"segments,omitempty"`
	// Speakers lists every speaker referenced by Segments.
	Speakers []Speaker `json:"speakers,omitempty"`
	// Duration is the media duration in seconds, when known.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or requested language.
	Language string `json:"language,omitempty"`
	// Summary is a short summary, when requested and supported.
	Summary string `json:"summary,omitempty"`
	// Provider is the name of the provider that produced this result.
	Provider string `json:"provider"`
	// ProcessingTimeMs is wall-clock time spent in the provider call.
	ProcessingTimeMs int64 `json:"processing_time_ms,omitempty"`
}

// SpeakersFromSegments derives the speaker list referenced by segments, in
// first-appearance order. Providers use it to keep the Result's speaker list
// complete.
func SpeakersFromSegments(segments []Segment) []Speaker {
	seen := make(map[string]bool)
	var speakers []Speaker
	for _, seg := range segments {
		if seg.SpeakerID == "" || seen[seg.SpeakerID] {
			continue
		}
		seen[seg.SpeakerID] = true
		speakers = append(speakers, Speaker{ID: seg.SpeakerID})
	}
	return speakers
}

// SortSegmentsByStart orders segments by start time, keeping the relative
// order of segments that share one. Helper for callers that need a globally
// time-ordered view of a diarized result.
func SortSegmentsByStart(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
}
