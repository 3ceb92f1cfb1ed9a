// Package ratelimit spaces outbound calls per venue. Each venue gets its own
// token bucket so concurrent fetches against different venues never serialize,
// while successive calls to the same venue are at least min_interval apart.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"arbscan/internal/domain"
)

// Limiter implements domain.RateLimiter with one rate.Limiter per venue,
// created lazily on first use.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// NewLimiter creates a Limiter that spaces calls to each venue by at least
// the given interval.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// getLimiter returns or creates the limiter for the given venue.
func (l *Limiter) getLimiter(venue string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[venue]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the write lock.
	if lim, ok := l.limiters[venue]; ok {
		return lim
	}

	lim = rate.NewLimiter(rate.Every(l.interval), 1)
	l.limiters[venue] = lim
	return lim
}

// Wait blocks until a call for the given venue is allowed or the context is
// cancelled. The wait is bounded: at most one full interval behind the
// previous caller on the same venue.
func (l *Limiter) Wait(ctx context.Context, venue string) error {
	if err := l.getLimiter(venue).Wait(ctx); err != nil {
		return fmt.Errorf("ratelimit: wait %s: %w", venue, err)
	}
	return nil
}

// Allow reports whether a call for the given venue may proceed immediately,
// consuming the permit if so.
func (l *Limiter) Allow(venue string) bool {
	return l.getLimiter(venue).Allow()
}

// Compile-time interface check.
var _ domain.RateLimiter = (*Limiter)(nil)
