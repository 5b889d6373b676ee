// Package limiter provides a token-bucket rate limiting middleware.
package limiter

import (
	"errors"

	"golang.org/x/time/rate"

	"github.com/gentext/gentext/middleware"
)

// ErrRateLimited indicates the request was rejected by the rate limiter.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiter gates the chain behind a token bucket shared by all
// requests.
type RateLimiter struct {
	limiter *rate.Limiter
	wait    bool
}

// NewRateLimiter allows rps requests per second with the given burst.
// Requests over the limit are rejected with ErrRateLimited.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// NewWaitingRateLimiter is like NewRateLimiter but blocks until a token is
// available or the request context expires.
func NewWaitingRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst), wait: true}
}

// Name returns the middleware name.
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute acquires a token, then continues the chain.
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.wait {
		if err := m.limiter.Wait(ctx.Context()); err != nil {
			return err
		}
		return next(ctx)
	}
	if !m.limiter.Allow() {
		return ErrRateLimited
	}
	return next(ctx)
}
