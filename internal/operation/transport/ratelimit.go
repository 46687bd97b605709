package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// TokenBucketLimiter adapts golang.org/x/time/rate to the RateLimiter interface.
type TokenBucketLimiter struct {
	limiter *rate.Limiter
}

// NewTokenBucketLimiter creates a limiter allowing requestsPerSec sustained
// requests with the given burst.
func NewTokenBucketLimiter(requestsPerSec float64, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), burst),
	}
}

// Wait blocks until a request is allowed under the rate limit.
func (l *TokenBucketLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
