package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     attempts,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
		BackoffFactor:   2,
		RetryableErrors: []int{408, 429, 500, 502, 503, 504},
	}
}

func TestRetryConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *RetryConfig
		wantErr bool
	}{
		{name: "default is valid", config: DefaultRetryConfig(), wantErr: false},
		{name: "single attempt is valid", config: SingleAttemptConfig(), wantErr: false},
		{name: "zero attempts", config: &RetryConfig{MaxAttempts: 0, BackoffFactor: 2}, wantErr: true},
		{
			name: "max backoff below initial",
			config: &RetryConfig{
				MaxAttempts:    3,
				InitialBackoff: 10 * time.Second,
				MaxBackoff:     1 * time.Second,
				BackoffFactor:  2,
			},
			wantErr: true,
		},
		{
			name: "backoff factor below one",
			config: &RetryConfig{
				MaxAttempts:   3,
				MaxBackoff:    time.Second,
				BackoffFactor: 0.5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	calls := 0
	resp, err := Execute(context.Background(), fastRetryConfig(3), func(ctx context.Context) (*Response, error) {
		calls++
		return &Response{StatusCode: 200}, nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if resp.Metadata[MetadataRetryCount] != 0 {
		t.Errorf("retry count = %v, want 0", resp.Metadata[MetadataRetryCount])
	}
}

func TestExecuteRetriesRetryableError(t *testing.T) {
	calls := 0
	resp, err := Execute(context.Background(), fastRetryConfig(3), func(ctx context.Context) (*Response, error) {
		calls++
		if calls < 3 {
			return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 500, Retryable: true}
		}
		return &Response{StatusCode: 200}, nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if resp.Metadata[MetadataRetryCount] != 2 {
		t.Errorf("retry count = %v, want 2", resp.Metadata[MetadataRetryCount])
	}
}

func TestExecuteStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), fastRetryConfig(3), func(ctx context.Context) (*Response, error) {
		calls++
		return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 500, Retryable: true}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteDoesNotRetryNonRetryable(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), fastRetryConfig(3), func(ctx context.Context) (*Response, error) {
		calls++
		return nil, &TransportError{Type: ErrorTypeAuth, StatusCode: 401, Retryable: false}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable errors must not retry, got %d calls", calls)
	}
}

func TestExecuteDoesNotRetryUnknownErrorType(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), fastRetryConfig(3), func(ctx context.Context) (*Response, error) {
		calls++
		return nil, errors.New("plain error")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("unknown error types must not retry, got %d calls", calls)
	}
}

func TestExecuteRespectsStatusCodeAllowlist(t *testing.T) {
	config := fastRetryConfig(3)
	config.RetryableErrors = []int{503}

	calls := 0
	_, err := Execute(context.Background(), config, func(ctx context.Context) (*Response, error) {
		calls++
		// Marked retryable but 500 is not in the allowlist.
		return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 500, Retryable: true}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("status outside allowlist must not retry, got %d calls", calls)
	}
}

func TestExecuteSingleAttempt(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), SingleAttemptConfig(), func(ctx context.Context) (*Response, error) {
		calls++
		return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 500, Retryable: true}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}

func TestExecuteContextCancelledDuringBackoff(t *testing.T) {
	config := fastRetryConfig(3)
	config.InitialBackoff = 500 * time.Millisecond
	config.MaxBackoff = time.Second

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Execute(ctx, config, func(ctx context.Context) (*Response, error) {
			calls++
			return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 500, Retryable: true}
		})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	err := <-done
	terr, ok := err.(*TransportError)
	if !ok {
		t.Fatalf("expected TransportError, got %T (%v)", err, err)
	}
	if terr.Type != ErrorTypeCancelled {
		t.Errorf("expected cancelled, got %s", terr.Type)
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := &RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2,
	}

	// Jitter adds up to 100ms on top of the base delay.
	jitterMax := 100 * time.Millisecond

	tests := []struct {
		name       string
		attempt    int
		retryAfter time.Duration
		base       time.Duration
	}{
		{name: "first attempt", attempt: 1, base: time.Second},
		{name: "exponential growth", attempt: 3, base: 4 * time.Second},
		{name: "capped at max", attempt: 10, base: 10 * time.Second},
		{name: "retry-after wins when larger", attempt: 1, retryAfter: 5 * time.Second, base: 5 * time.Second},
		{name: "retry-after capped at max", attempt: 1, retryAfter: time.Minute, base: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(config, tt.attempt, tt.retryAfter)
			if got < tt.base || got > tt.base+jitterMax {
				t.Errorf("calculateBackoff() = %v, want in [%v, %v]", got, tt.base, tt.base+jitterMax)
			}
		})
	}
}

func TestExtractRetryAfter(t *testing.T) {
	tests := []struct {
		name string
		err  *TransportError
		want time.Duration
	}{
		{
			name: "numeric seconds",
			err: &TransportError{
				Metadata: map[string]interface{}{MetadataRetryAfter: "30"},
			},
			want: 30 * time.Second,
		},
		{
			name: "no metadata",
			err:  &TransportError{},
			want: 0,
		},
		{
			name: "malformed value",
			err: &TransportError{
				Metadata: map[string]interface{}{MetadataRetryAfter: "soonish"},
			},
			want: 0,
		},
		{
			name: "date in the past",
			err: &TransportError{
				Metadata: map[string]interface{}{MetadataRetryAfter: "Wed, 21 Oct 2015 07:28:00 GMT"},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractRetryAfter(tt.err); got != tt.want {
				t.Errorf("extractRetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}
