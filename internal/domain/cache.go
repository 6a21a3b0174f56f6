package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to the latest display probabilities.
type PriceCache interface {
	SetProb(ctx context.Context, feedKey string, probYes float64, ts time.Time) error
	GetProb(ctx context.Context, feedKey string) (float64, time.Time, error)
	GetProbs(ctx context.Context, feedKeys []string) (map[string]float64, error)
}

// LockManager provides per-market mutual exclusion for reserve mutations.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out of price and trade events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter provides distributed rate limiting for the API surface.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under a
	// sliding window of limit requests per window. Allowed requests
	// are counted.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
