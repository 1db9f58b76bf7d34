package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code and message,
// so wrapped sentinels still match with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeAlreadyExists  = "ALREADY_EXISTS"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeUpstream       = "UPSTREAM_ERROR"
	ErrCodeNotImplemented = "NOT_IMPLEMENTED"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrQueryTooShort          = NewDomainError(ErrCodeValidation, "query must have at least 2 characters")
	ErrInvalidContentType     = NewDomainError(ErrCodeValidation, "invalid content type")
	ErrInvalidSuggestionState = NewDomainError(ErrCodeValidation, "invalid content suggestion status")
	ErrMissingRequiredField   = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmbeddingNotConfigured = NewDomainError(ErrCodeValidation, "embedding provider not configured: OPENAI_API_KEY required")
)

// Not found errors
var (
	ErrTokenNotFound      = NewDomainError(ErrCodeNotFound, "token not found")
	ErrSuggestionNotFound = NewDomainError(ErrCodeNotFound, "content suggestion not found")
	ErrIndexRunNotFound   = NewDomainError(ErrCodeNotFound, "no index run recorded")
)

// Authorization errors
var (
	ErrTokenRevoked = NewDomainError(ErrCodeUnauthorized, "token has been revoked")
	ErrInvalidToken = NewDomainError(ErrCodeUnauthorized, "invalid token")
)

// Operation errors
var (
	ErrRebuildInProgress    = NewDomainError(ErrCodeConflict, "search index rebuild already in progress")
	ErrStorageNotConfigured = NewDomainError(ErrCodeNotImplemented, "report storage not configured: S3_ENDPOINT required")
)

// NewUpstreamError wraps a failure of an external dependency.
func NewUpstreamError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeUpstream, message, err)
}

// NewValidationError builds a validation error with a custom message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}
