package icount

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tombee/icount-connector/internal/operation"
	"github.com/tombee/icount-connector/internal/operation/transport"
)

// APIError represents an iCount API-reported failure: a decoded response body
// whose envelope carries status=false.
type APIError struct {
	// Message is the failure text reported by the API (message, else error,
	// else the JSON-stringified body).
	Message string

	// StatusCode is the HTTP status code of the response (usually 200; the
	// API reports failures in-band).
	StatusCode int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("iCount API Error: %s", e.Message)
}

// IsNotFound reports whether the failure text looks like a no-match outcome.
// The API does not distinguish "not found" from other failures at the
// protocol level, so this is a best-effort text check used only by lookup
// paths that treat absence as a non-error.
func (e *APIError) IsNotFound() bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no results")
}

// wrapTransportError converts transport-layer failures into operation errors
// with clarifying messages for authentication and rate-limit failures. All
// other transport errors propagate unchanged.
func wrapTransportError(err error) error {
	var terr *transport.TransportError
	if !errors.As(err, &terr) {
		return err
	}

	switch terr.Type {
	case transport.ErrorTypeAuth:
		return &operation.Error{
			Type:        operation.ErrorTypeAuth,
			StatusCode:  terr.StatusCode,
			Message:     "iCount authentication failed - check that the API token is valid and active",
			SuggestText: "Regenerate the token in the iCount admin console if it has expired",
			Cause:       terr,
		}
	case transport.ErrorTypeRateLimit:
		msg := "iCount rate limit exceeded - too many requests"
		retryAfter := 0
		if terr.Metadata != nil {
			if hint, ok := terr.Metadata[transport.MetadataRetryAfter].(string); ok && hint != "" {
				msg = fmt.Sprintf("%s (retry after %s)", msg, hint)
				if n, err := parseSeconds(hint); err == nil {
					retryAfter = n
				}
			}
		}
		return &operation.Error{
			Type:       operation.ErrorTypeRateLimit,
			StatusCode: terr.StatusCode,
			Message:    msg,
			RetryAfter: retryAfter,
			Cause:      terr,
		}
	default:
		return err
	}
}

// parseSeconds parses a numeric Retry-After hint.
func parseSeconds(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
