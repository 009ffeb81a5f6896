// Package ratelimit throttles fetches with one token bucket per host.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/weblink-inspector/internal/metrics"
	"github.com/JakeFAU/weblink-inspector/internal/urlutil"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

// Limiter manages per-host rate limits.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// Config holds rate limiter configuration. A non-positive RequestsPerSecond
// disables limiting.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// Wait blocks until rawURL's host has a token or ctx is done.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := urlutil.Site(rawURL)

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(rawURL, waited)
	}
	return nil
}

// Wrap returns a Fetcher that waits on the limiter before delegating to next.
// A failed wait is reported as a transport failure.
func (l *Limiter) Wrap(next weblink.Fetcher) weblink.Fetcher {
	return &fetcher{limiter: l, next: next}
}

type fetcher struct {
	limiter *Limiter
	next    weblink.Fetcher
}

func (f *fetcher) Fetch(ctx context.Context, url string) weblink.FetchResult {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return weblink.FetchFailed(0, &weblink.TransportError{Err: err})
	}
	return f.next.Fetch(ctx, url)
}
