package operation

import (
	"context"
)

// Connector represents a configured external integration.
// Each connector can execute multiple named operations.
type Connector interface {
	// Name returns the connector identifier
	Name() string

	// Execute runs a named operation with the given inputs
	Execute(ctx context.Context, operation string, inputs map[string]interface{}) (*Result, error)
}

// PaginatedConnector extends Connector to support paginated operations.
// Connectors whose list operations can span pages implement this interface
// to stream results through a channel.
type PaginatedConnector interface {
	Connector

	// ExecutePaginated returns a channel of results for paginated operations.
	// The channel is closed when all results have been sent or an error occurs.
	// Errors are included in the Result.Metadata["error"] field.
	//
	// Supported options in inputs:
	// - paginate: bool - Enable pagination (default: false)
	// - max_results: int - Maximum number of results to return (default: unlimited)
	ExecutePaginated(ctx context.Context, operation string, inputs map[string]interface{}) (<-chan *Result, error)
}

// Result represents the output of a connector operation.
type Result struct {
	// Response is the transformed response data
	Response interface{}

	// RawResponse is the original response before transformation (for debugging)
	RawResponse interface{}

	// Attachments holds named binary payloads produced by the operation
	// (e.g., a fetched PDF), base64-encoded.
	Attachments map[string]*Attachment

	// StatusCode is the HTTP status code
	StatusCode int

	// Headers contains response headers
	Headers map[string][]string

	// Metadata contains execution metadata (request ID, timing, etc.)
	Metadata map[string]interface{}
}

// Attachment is a binary blob attached to a result.
type Attachment struct {
	// FileName is the suggested file name for the blob
	FileName string `json:"file_name"`

	// MimeType is the media type of the blob
	MimeType string `json:"mime_type"`

	// Data is the base64-encoded content
	Data string `json:"data"`
}

// GetResponse returns the transformed response data.
func (r *Result) GetResponse() interface{} {
	return r.Response
}

// GetRawResponse returns the original response before transformation.
func (r *Result) GetRawResponse() interface{} {
	return r.RawResponse
}

// GetStatusCode returns the HTTP status code.
func (r *Result) GetStatusCode() int {
	return r.StatusCode
}

// GetMetadata returns execution metadata.
func (r *Result) GetMetadata() map[string]interface{} {
	return r.Metadata
}

// Factory creates a connector from provider configuration.
// Registered by integration packages during init().
type Factory func(baseURL, token string, additionalAuth map[string]string) (Connector, error)

// factories holds registered builtin connector factories.
var factories = make(map[string]Factory)

// Register registers a builtin connector factory.
// This is called by the integration registry during init().
func Register(name string, factory Factory) {
	factories[name] = factory
}

// New creates a registered builtin connector.
func New(name, baseURL, token string, additionalAuth map[string]string) (Connector, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, &Error{
			Type:    ErrorTypeNotFound,
			Message: "builtin connector not found: " + name,
		}
	}
	return factory(baseURL, token, additionalAuth)
}
