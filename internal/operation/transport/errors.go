package transport

import (
	"fmt"
)

// ErrorType classifies transport errors for routing and retry decisions.
type ErrorType string

const (
	// ErrorTypeConnection indicates network or DNS errors
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeTimeout indicates request timeout or deadline exceeded
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeAuth indicates authentication failure (401, 403)
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeRateLimit indicates rate limiting (429 Too Many Requests)
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeServer indicates server errors (5xx)
	ErrorTypeServer ErrorType = "server"

	// ErrorTypeClient indicates client errors (4xx, non-retryable)
	ErrorTypeClient ErrorType = "client"

	// ErrorTypeInvalidReq indicates the request was rejected before sending
	ErrorTypeInvalidReq ErrorType = "invalid_request"

	// ErrorTypeCancelled indicates context was cancelled
	ErrorTypeCancelled ErrorType = "cancelled"
)

// TransportError is the structured failure every transport returns, so
// retry logic and connectors classify errors the same way.
type TransportError struct {
	// Type classifies the error for routing and retry decisions
	Type ErrorType

	// StatusCode is the HTTP status code; zero for non-HTTP failures
	StatusCode int

	// Message is a user-facing error message with credentials redacted
	Message string

	// RequestID is the request ID from the service
	RequestID string

	// Retryable indicates whether the error is retryable
	Retryable bool

	// Cause is the underlying error. May contain sensitive data; use
	// Message for anything user-facing.
	Cause error

	// Metadata contains service-specific debugging details
	Metadata map[string]interface{}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *TransportError) Unwrap() error {
	return e.Cause
}
