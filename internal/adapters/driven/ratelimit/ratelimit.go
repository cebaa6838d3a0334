// Package ratelimit paces requests to the hosted services the pipeline
// calls and backs off after 429 responses.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Service identifies an external API for rate limiting purposes.
type Service string

// Known services.
const (
	ServiceAssemblyAI Service = "assemblyai"
	ServicePinecone   Service = "pinecone"
	ServiceTwilio     Service = "twilio"
	ServiceGemini     Service = "gemini"
)

// Config holds the token bucket parameters for a service.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// Defaults stay below each provider's published free-tier limits.
var Defaults = map[Service]Config{
	ServiceAssemblyAI: {RequestsPerSecond: 5, BurstSize: 10},
	ServicePinecone:   {RequestsPerSecond: 20, BurstSize: 20},
	ServiceTwilio:     {RequestsPerSecond: 1, BurstSize: 5},
	ServiceGemini:     {RequestsPerSecond: 5, BurstSize: 10},
}

// defaultBackoff applies when a 429 carries no usable Retry-After.
const defaultBackoff = 60 * time.Second

// Limiter is a token bucket with an additional backoff window set after
// the remote side reports a rate limit.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// New creates a limiter for a known service. Unknown services get a
// conservative 5 rps.
func New(service Service) *Limiter {
	cfg, ok := Defaults[service]
	if !ok {
		cfg = Config{RequestsPerSecond: 5, BurstSize: 10}
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a limiter with custom parameters.
func NewWithConfig(cfg Config) *Limiter {
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		now:     time.Now,
	}
}

// Wait blocks until a request may be made, honouring any backoff window.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := retryAt.Sub(l.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may be made right now.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if l.now().Before(retryAt) {
		return false
	}
	return l.limiter.Allow()
}

// Backoff opens a backoff window of the given length. Non-positive values
// use a 60 second default.
func (l *Limiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = defaultBackoff
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if until := l.now().Add(d); until.After(l.retryAt) {
		l.retryAt = until
	}
}

// Observe inspects a response and opens a backoff window on 429.
// It reports whether the response was rate limited.
func (l *Limiter) Observe(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	l.Backoff(RetryAfter(resp.Header.Get("Retry-After")))
	return true
}

// RetryAfter parses a Retry-After header given in seconds.
// HTTP-date values and garbage return zero.
func RetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
