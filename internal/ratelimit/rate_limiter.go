// rate_limiter.go - Outbound request pacing per external provider

package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces outbound calls with one token bucket per provider. A nil
// *Limiter never blocks.
type Limiter struct {
	mu        sync.Mutex
	perMinute int
	burst     int
	buckets   map[string]*rate.Limiter
}

// NewLimiter creates a limiter allowing perMinute requests to each provider.
// perMinute <= 0 disables pacing.
func NewLimiter(perMinute int) *Limiter {
	burst := perMinute / 5
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		perMinute: perMinute,
		burst:     burst,
		buckets:   make(map[string]*rate.Limiter),
	}
}

// Wait blocks until provider has a free slot or ctx is done
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	if l == nil || l.perMinute <= 0 {
		return nil
	}
	return l.bucket(provider).Wait(ctx)
}

// Allow reports whether a request to provider may be sent right now
func (l *Limiter) Allow(provider string) bool {
	if l == nil || l.perMinute <= 0 {
		return true
	}
	return l.bucket(provider).Allow()
}

func (l *Limiter) bucket(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[provider]
	if !ok {
		b = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.burst)
		l.buckets[provider] = b
	}
	return b
}
