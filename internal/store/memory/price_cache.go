package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

type probEntry struct {
	prob float64
	ts   time.Time
}

// PriceCache is an in-memory implementation of domain.PriceCache.
type PriceCache struct {
	mu   sync.RWMutex
	data map[string]probEntry
}

// NewPriceCache creates an empty in-memory price cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{data: make(map[string]probEntry)}
}

// SetProb stores the latest display probability for a feed key.
func (c *PriceCache) SetProb(_ context.Context, feedKey string, probYes float64, ts time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[feedKey] = probEntry{prob: probYes, ts: ts}
	return nil
}

// GetProb returns the latest display probability and its timestamp.
func (c *PriceCache) GetProb(_ context.Context, feedKey string) (float64, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[feedKey]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return e.prob, e.ts, nil
}

// GetProbs returns probabilities for multiple feed keys; missing keys are
// omitted from the result map.
func (c *PriceCache) GetProbs(_ context.Context, feedKeys []string) (map[string]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]float64, len(feedKeys))
	for _, k := range feedKeys {
		if e, ok := c.data[k]; ok {
			out[k] = e.prob
		}
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
