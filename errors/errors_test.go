package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppErrorString(t *testing.T) {
	err := NotFound("gs://bucket/missing.mp3")
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("expected code in error string, got %q", err.Error())
	}

	withCause := TransientIO("download", fmt.Errorf("connection reset"))
	if !strings.Contains(withCause.Error(), "connection reset") {
		t.Errorf("expected cause in error string, got %q", withCause.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := TransientIO("upload", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestCodeOf(t *testing.T) {
	err := PermissionDenied("s3://bucket/key")
	if CodeOf(err) != ErrCodePermissionDenied {
		t.Errorf("expected PERMISSION_DENIED, got %q", CodeOf(err))
	}

	wrapped := fmt.Errorf("facade: %w", err)
	if CodeOf(wrapped) != ErrCodePermissionDenied {
		t.Error("expected CodeOf to see through wrapping")
	}

	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("expected empty code for non-AppError")
	}
}

func TestIsCode(t *testing.T) {
	err := NoProviderForURI("ftp://x/y")
	if !IsCode(err, ErrCodeNoProviderForURI) {
		t.Error("expected IsCode to match")
	}
	if IsCode(err, ErrCodeNotFound) {
		t.Error("expected IsCode mismatch")
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{TransientIO("download", nil), true},
		{RateLimited("speech", nil), true},
		{NotFound("gs://b/p"), false},
		{PermissionDenied("gs://b/p"), false},
		{UnsupportedOperation("disk", "signed URLs"), false},
		{UploadInProgress("abc"), false},
	}
	for _, tc := range cases {
		if IsRetryable(tc.err) != tc.retryable {
			t.Errorf("retryable(%v) = %v, want %v", tc.err, !tc.retryable, tc.retryable)
		}
	}
}

func TestProviderNotFoundListsAvailable(t *testing.T) {
	err := ProviderNotFound("nonexistent", []string{"gcs", "s3"})
	if !strings.Contains(err.Message, "gcs") || !strings.Contains(err.Message, "s3") {
		t.Errorf("expected available names in message, got %q", err.Message)
	}
}

func TestWithDetail(t *testing.T) {
	err := Validation("language must be a BCP-47 tag").WithDetail("field", "language")
	if err.Details["field"] != "language" {
		t.Errorf("expected detail to be set, got %v", err.Details)
	}
}
