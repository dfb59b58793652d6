package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// URI and registry errors. These indicate misconfiguration or programming
// errors and should fail fast rather than be caught per call.
const (
	// ErrCodeUnsupportedURI indicates the URI matches no known scheme.
	ErrCodeUnsupportedURI ErrorCode = "UNSUPPORTED_URI_FORMAT"
	// ErrCodeProviderNotFound indicates no provider is registered under the requested name.
	ErrCodeProviderNotFound ErrorCode = "PROVIDER_NOT_FOUND"
	// ErrCodeNoProviderForURI indicates no registered provider claims the URI's scheme.
	ErrCodeNoProviderForURI ErrorCode = "NO_PROVIDER_FOR_URI"
	// ErrCodeNoProvidersRegistered indicates the registry is empty.
	ErrCodeNoProvidersRegistered ErrorCode = "NO_PROVIDERS_REGISTERED"
)

// Remote object errors
const (
	// ErrCodeNotFound indicates the remote object is absent.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodePermissionDenied indicates the backend refused access.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeTransientIO indicates a network or backend failure that is safe
	// to retry with backoff. This module never retries internally.
	ErrCodeTransientIO ErrorCode = "TRANSIENT_IO"
	// ErrCodeRateLimited indicates the backend throttled the call or quota ran out.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Capability and contract errors
const (
	// ErrCodeUnsupportedOperation indicates the provider lacks a capability the caller requested.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	// ErrCodeCannotHandleRequest indicates the resolved transcription provider
	// rejected the request's URI or format.
	ErrCodeCannotHandleRequest ErrorCode = "PROVIDER_CANNOT_HANDLE_REQUEST"
	// ErrCodeMediaTooLong indicates the media exceeds the provider's duration limit.
	ErrCodeMediaTooLong ErrorCode = "MEDIA_TOO_LONG"
	// ErrCodeInvalidInput indicates the request failed validation.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Upload session errors
const (
	// ErrCodeUploadInProgress indicates a second Start on a session that already ran.
	ErrCodeUploadInProgress ErrorCode = "UPLOAD_ALREADY_IN_PROGRESS"
	// ErrCodeUploadCanceled indicates the session was canceled before completion.
	ErrCodeUploadCanceled ErrorCode = "UPLOAD_CANCELED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransientIO: true,
	ErrCodeRateLimited: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
