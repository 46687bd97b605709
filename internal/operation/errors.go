package operation

import (
	"fmt"
	"net/http"
)

// ErrorType classifies operation errors for appropriate handling.
type ErrorType string

const (
	// ErrorTypeAuth indicates authentication or authorization failure (401, 403)
	ErrorTypeAuth ErrorType = "auth_error"

	// ErrorTypeNotFound indicates resource not found (404)
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeValidation indicates invalid request data (400, 422)
	ErrorTypeValidation ErrorType = "validation_error"

	// ErrorTypeRateLimit indicates rate limit exceeded (429)
	ErrorTypeRateLimit ErrorType = "rate_limited"

	// ErrorTypeServer indicates server-side error (500, 502, 503, 504)
	ErrorTypeServer ErrorType = "server_error"

	// ErrorTypeTimeout indicates operation timeout
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeConnection indicates network/DNS error
	ErrorTypeConnection ErrorType = "connection_error"

	// ErrorTypeAPI indicates an API-reported failure (envelope status:false)
	ErrorTypeAPI ErrorType = "api_error"

	// ErrorTypeTransform indicates response transform failure
	ErrorTypeTransform ErrorType = "transform_error"
)

// Error represents an operation execution error with classification.
type Error struct {
	// Type classifies the error for routing decisions
	Type ErrorType

	// Message is the human-readable error description
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// RetryAfter indicates when to retry, in seconds (for rate limit errors)
	RetryAfter int

	// SuggestText provides guidance on how to resolve the error
	SuggestText string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message

	if e.Type != "" {
		msg = fmt.Sprintf("%s (type: %s)", msg, e.Type)
	}

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsUserVisible reports whether the error should be shown verbatim to users.
// Operation errors are always user-visible.
func (e *Error) IsUserVisible() bool {
	return true
}

// UserMessage returns a user-friendly message without technical details.
func (e *Error) UserMessage() string {
	return e.Message
}

// Suggestion returns actionable guidance for resolving the error.
func (e *Error) Suggestion() string {
	return e.SuggestText
}

// ClassifyHTTPError classifies an HTTP status code into an error type.
func ClassifyHTTPError(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return ErrorTypeValidation
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServer
	default:
		return ErrorTypeValidation
	}
}

// NewValidationError creates an error for locally rejected inputs.
// Validation errors are raised before any network call is made.
func NewValidationError(message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeValidation,
		Message:     message,
		Cause:       cause,
		SuggestText: "Check the operation inputs against its schema",
	}
}

// NewTransformError creates an error for response transform failures.
func NewTransformError(expression string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeTransform,
		Message:     fmt.Sprintf("response transform failed: %s", expression),
		Cause:       cause,
		SuggestText: "Check jq expression syntax and ensure it matches the response structure",
	}
}
