package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// PriceCache implements domain.PriceCache using Redis hashes. Each mirrored
// market's display probability is stored as a hash at key "prob:{feedKey}"
// with fields "prob" and "ts" (Unix nanosecond timestamp).
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache backed by the given Client. A zero ttl
// means entries never expire.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{rdb: c.Underlying(), ttl: ttl}
}

func probKey(feedKey string) string {
	return "prob:" + feedKey
}

// SetProb stores the latest display probability and timestamp for a feed key.
func (pc *PriceCache) SetProb(ctx context.Context, feedKey string, probYes float64, ts time.Time) error {
	key := probKey(feedKey)
	fields := map[string]interface{}{
		"prob": strconv.FormatFloat(probYes, 'f', -1, 64),
		"ts":   strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := pc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set prob %s: %w", feedKey, err)
	}
	if pc.ttl > 0 {
		if err := pc.rdb.Expire(ctx, key, pc.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire prob %s: %w", feedKey, err)
		}
	}
	return nil
}

// GetProb retrieves the latest display probability and its timestamp.
// It returns domain.ErrNotFound when the key does not exist.
func (pc *PriceCache) GetProb(ctx context.Context, feedKey string) (float64, time.Time, error) {
	vals, err := pc.rdb.HGetAll(ctx, probKey(feedKey)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get prob %s: %w", feedKey, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	probStr, ok := vals["prob"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	prob, err := strconv.ParseFloat(probStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse prob %s: %w", feedKey, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", feedKey, err)
	}

	return prob, time.Unix(0, tsNano), nil
}

// GetProbs retrieves display probabilities for multiple feed keys using a
// pipeline. Keys that do not exist are silently omitted from the result map.
func (pc *PriceCache) GetProbs(ctx context.Context, feedKeys []string) (map[string]float64, error) {
	if len(feedKeys) == 0 {
		return map[string]float64{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(feedKeys))
	for _, k := range feedKeys {
		cmds[k] = pipe.HGetAll(ctx, probKey(k))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get probs pipeline: %w", err)
	}

	result := make(map[string]float64, len(feedKeys))
	for k, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		probStr, ok := vals["prob"]
		if !ok {
			continue
		}
		prob, err := strconv.ParseFloat(probStr, 64)
		if err != nil {
			continue
		}
		result[k] = prob
	}

	return result, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
