package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPTransport implements the Transport interface for HTTP/HTTPS requests.
// Supports configurable timeouts, default headers, retry behavior, and an
// optional rate limiter.
type HTTPTransport struct {
	config      *HTTPTransportConfig
	client      *http.Client
	rateLimiter RateLimiter
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	// Timeout is the request timeout (default: 30s)
	Timeout time.Duration

	// Headers are default headers applied to all requests
	Headers map[string]string

	// RetryConfig configures retry behavior (optional, uses defaults if nil)
	RetryConfig *RetryConfig
}

// Validate checks if the configuration is valid.
func (c *HTTPTransportConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}

	if c.RetryConfig != nil {
		if err := c.RetryConfig.Validate(); err != nil {
			return fmt.Errorf("invalid retry configuration: %w", err)
		}
	}

	return nil
}

// NewHTTPTransport creates a new HTTP transport with the given configuration.
func NewHTTPTransport(config *HTTPTransportConfig) (*HTTPTransport, error) {
	if config == nil {
		config = &HTTPTransportConfig{}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,

			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return &HTTPTransport{
		config: config,
		client: client,
	}, nil
}

// Name returns "http".
func (t *HTTPTransport) Name() string {
	return "http"
}

// SetRateLimiter configures rate limiting for this transport.
func (t *HTTPTransport) SetRateLimiter(limiter RateLimiter) {
	t.rateLimiter = limiter
}

// Execute sends an HTTP request and returns the response.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := t.validateRequest(req); err != nil {
		return nil, &TransportError{
			Type:      ErrorTypeInvalidReq,
			Message:   fmt.Sprintf("invalid request: %s", err.Error()),
			Retryable: false,
			Cause:     err,
		}
	}

	retryConfig := t.config.RetryConfig
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}

	return Execute(ctx, retryConfig, func(ctx context.Context) (*Response, error) {
		return t.executeOnce(ctx, req)
	})
}

// executeOnce executes a single HTTP request without retry logic.
func (t *HTTPTransport) executeOnce(ctx context.Context, req *Request) (*Response, error) {
	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return nil, &TransportError{
				Type:      ErrorTypeCancelled,
				Message:   "rate limit wait cancelled",
				Retryable: false,
				Cause:     err,
			}
		}
	}

	httpReq, err := t.buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, &TransportError{
			Type:      ErrorTypeInvalidReq,
			Message:   fmt.Sprintf("failed to build HTTP request: %s", err.Error()),
			Retryable: false,
			Cause:     err,
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, t.classifyHTTPError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{
			Type:      ErrorTypeConnection,
			Message:   fmt.Sprintf("failed to read response body: %s", err.Error()),
			Retryable: true,
			Cause:     err,
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Metadata:   make(map[string]interface{}),
	}

	if requestID := httpResp.Header.Get("X-Request-ID"); requestID != "" {
		resp.Metadata[MetadataRequestID] = requestID
	}

	if httpResp.StatusCode >= 400 {
		if retryAfter := httpResp.Header.Get("Retry-After"); retryAfter != "" {
			resp.Metadata[MetadataRetryAfter] = retryAfter
		}
		return nil, t.classifyHTTPStatusError(httpResp.StatusCode, body, resp.Metadata)
	}

	return resp, nil
}

// validateRequest checks if the request is valid.
func (t *HTTPTransport) validateRequest(req *Request) error {
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}

	validMethods := map[string]bool{
		"GET": true, "POST": true, "PUT": true, "DELETE": true,
		"PATCH": true, "HEAD": true, "OPTIONS": true,
	}
	if !validMethods[req.Method] {
		return fmt.Errorf("invalid HTTP method: %q", req.Method)
	}

	if req.URL == "" {
		return fmt.Errorf("URL is required")
	}

	_, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	return nil
}

// buildHTTPRequest constructs an http.Request from a transport Request.
func (t *HTTPTransport) buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	// Apply default headers from config
	for key, value := range t.config.Headers {
		httpReq.Header.Set(key, value)
	}

	// Apply request headers (override defaults)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

// classifyHTTPError classifies HTTP client errors into TransportError types.
func (t *HTTPTransport) classifyHTTPError(err error) *TransportError {
	if strings.Contains(err.Error(), "context canceled") || strings.Contains(err.Error(), "context deadline exceeded") {
		return &TransportError{
			Type:      ErrorTypeCancelled,
			Message:   "request cancelled",
			Retryable: false,
			Cause:     err,
		}
	}

	if isTimeoutError(err) {
		return &TransportError{
			Type:      ErrorTypeTimeout,
			Message:   "request timeout",
			Retryable: true,
			Cause:     err,
		}
	}

	if isConnectionError(err) {
		return &TransportError{
			Type:      ErrorTypeConnection,
			Message:   "connection error",
			Retryable: true,
			Cause:     err,
		}
	}

	return &TransportError{
		Type:      ErrorTypeConnection,
		Message:   fmt.Sprintf("HTTP error: %s", err.Error()),
		Retryable: true,
		Cause:     err,
	}
}

// classifyHTTPStatusError classifies HTTP status code errors into TransportError types.
func (t *HTTPTransport) classifyHTTPStatusError(statusCode int, body []byte, metadata map[string]interface{}) *TransportError {
	var errorType ErrorType
	var retryable bool

	switch {
	case statusCode == 401 || statusCode == 403:
		errorType = ErrorTypeAuth
		retryable = false
	case statusCode == 429:
		errorType = ErrorTypeRateLimit
		retryable = true
	case statusCode >= 500:
		errorType = ErrorTypeServer
		retryable = true
	case statusCode == 408:
		errorType = ErrorTypeTimeout
		retryable = true
	default:
		errorType = ErrorTypeClient
		retryable = false
	}

	// Build error message (sanitize body to avoid leaking sensitive data)
	message := fmt.Sprintf("HTTP %d", statusCode)
	if len(body) > 0 && len(body) < 500 {
		message = fmt.Sprintf("HTTP %d: %s", statusCode, strings.TrimSpace(string(body)))
	}

	return &TransportError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  retryable,
		Metadata:   metadata,
	}
}

// isTimeoutError checks if an error is a timeout error.
func isTimeoutError(err error) bool {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	return false
}

// isConnectionError checks if an error is a connection error.
func isConnectionError(err error) bool {
	if _, ok := err.(*net.OpError); ok {
		return true
	}
	if _, ok := err.(*url.Error); ok {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	connectionKeywords := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network unreachable",
		"eof",
	}

	for _, keyword := range connectionKeywords {
		if strings.Contains(errMsg, keyword) {
			return true
		}
	}

	return false
}
