// Package errors provides unified error handling for mediakit.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection. Provider implementations translate backend SDK
// errors into this taxonomy at the boundary; errors then propagate unchanged
// through registries and facades to the caller.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsRetryable reports whether err is marked safe to retry.
func IsRetryable(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// --- Common Error Constructors ---

// UnsupportedURI creates an error for a URI matching no known scheme.
func UnsupportedURI(uri string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedURI, Message: fmt.Sprintf("Unsupported storage URI format: %q", uri),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"uri": uri},
	}
}

// ProviderNotFound creates an error for an unknown provider name, listing
// the names that are registered.
func ProviderNotFound(name string, available []string) *AppError {
	return &AppError{
		Code:       ErrCodeProviderNotFound,
		Message:    fmt.Sprintf("Provider %q is not registered. Available: %s", name, strings.Join(available, ", ")),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"provider": name, "available": available},
	}
}

// NoProviderForURI creates an error when no registered provider claims a URI.
func NoProviderForURI(uri string) *AppError {
	return &AppError{
		Code: ErrCodeNoProviderForURI, Message: fmt.Sprintf("No registered provider can handle URI %q", uri),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"uri": uri},
	}
}

// NoProvidersRegistered creates an error for an empty registry.
func NoProvidersRegistered(kind string) *AppError {
	return &AppError{
		Code: ErrCodeNoProvidersRegistered, Message: fmt.Sprintf("No %s providers registered", kind),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"kind": kind},
	}
}

// NotFound creates an error for a remote object that is absent.
func NotFound(uri string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("Object not found: %s", uri),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"uri": uri},
	}
}

// PermissionDenied creates an error for refused backend access.
func PermissionDenied(uri string) *AppError {
	return &AppError{
		Code: ErrCodePermissionDenied, Message: fmt.Sprintf("Access denied for %s. Check credentials and bucket policy.", uri),
		HTTPStatus: http.StatusForbidden, Retryable: false,
		Details: map[string]any{"uri": uri},
	}
}

// TransientIO creates a retryable error for a network or backend failure.
func TransientIO(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransientIO, Message: fmt.Sprintf("Transient I/O failure during %s. Safe to retry.", operation),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// RateLimited creates a retryable error for quota exhaustion or throttling.
func RateLimited(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: fmt.Sprintf("The %s service throttled the request. Retry with backoff.", service),
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// UnsupportedOperation creates an error for a capability the provider lacks.
func UnsupportedOperation(provider, operation string) *AppError {
	return &AppError{
		Code:       ErrCodeUnsupportedOperation,
		Message:    fmt.Sprintf("Provider %q does not support %s", provider, operation),
		HTTPStatus: http.StatusNotImplemented, Retryable: false,
		Details: map[string]any{"provider": provider, "operation": operation},
	}
}

// CannotHandleRequest creates an error for a transcription request the
// resolved provider rejects.
func CannotHandleRequest(provider, reason string) *AppError {
	return &AppError{
		Code:       ErrCodeCannotHandleRequest,
		Message:    fmt.Sprintf("Provider %q cannot handle this request: %s", provider, reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"provider": provider, "reason": reason},
	}
}

// MediaTooLong creates an error for media exceeding a provider's duration limit.
func MediaTooLong(provider string, maxSeconds int) *AppError {
	return New(ErrCodeMediaTooLong,
		fmt.Sprintf("Media exceeds the %ds limit of provider %q", maxSeconds, provider),
		http.StatusRequestEntityTooLarge).
		WithDetail("provider", provider).
		WithDetail("max_duration_seconds", maxSeconds)
}

// InvalidInput creates an error for a request that failed validation.
func InvalidInput(reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason), http.StatusBadRequest)
}

// Validation creates an error carrying a validation failure message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// UploadInProgress creates an error for reusing an upload session.
func UploadInProgress(sessionID string) *AppError {
	return &AppError{
		Code:       ErrCodeUploadInProgress,
		Message:    "Upload session already started; create a new session per transfer.",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"session_id": sessionID},
	}
}

// UploadCanceled creates an error for a canceled upload session.
func UploadCanceled(sessionID string) *AppError {
	return &AppError{
		Code:       ErrCodeUploadCanceled,
		Message:    "Upload canceled by caller.",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"session_id": sessionID},
	}
}
