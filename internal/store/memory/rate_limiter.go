package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// RateLimiter is a process-local sliding-window implementation of
// domain.RateLimiter for the dev mode and tests.
type RateLimiter struct {
	mu      sync.Mutex
	history map[string][]time.Time
}

// NewRateLimiter creates an empty in-process rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{history: make(map[string][]time.Time)}
}

// Allow reports whether a request for key fits under limit requests per
// window, counting it when it does.
func (rl *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)

	kept := rl.history[key][:0]
	for _, t := range rl.history[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		rl.history[key] = kept
		return false, nil
	}

	rl.history[key] = append(kept, now)
	return true, nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
