// Package pipeline contains the background loops: feed polling, reserve
// bootstrapping, and snapshot archival.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/mirror"
)

// FeedPoller periodically fetches upstream probabilities for every active
// market with a feed subscription and runs each reading through the mirror
// tracker before caching and broadcasting the display value.
type FeedPoller struct {
	feed    domain.OddsFeed
	markets domain.MarketStore
	tracker *mirror.Tracker
	cache   domain.PriceCache
	bus     domain.SignalBus
	logger  *slog.Logger
}

// NewFeedPoller creates a FeedPoller.
func NewFeedPoller(
	feed domain.OddsFeed,
	markets domain.MarketStore,
	tracker *mirror.Tracker,
	cache domain.PriceCache,
	bus domain.SignalBus,
	logger *slog.Logger,
) *FeedPoller {
	return &FeedPoller{
		feed:    feed,
		markets: markets,
		tracker: tracker,
		cache:   cache,
		bus:     bus,
		logger:  logger,
	}
}

// RunLoop polls immediately and then on every tick until ctx is cancelled.
func (p *FeedPoller) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := p.PollOnce(ctx); err != nil {
		p.logger.Error("feed poll failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.PollOnce(ctx); err != nil {
				p.logger.Error("feed poll failed", slog.String("error", err.Error()))
			}
		}
	}
}

// PollOnce fetches one reading per subscribed feed key. A failure on one
// key never blocks the others.
func (p *FeedPoller) PollOnce(ctx context.Context) error {
	keys, err := p.subscribedKeys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := p.pollKey(ctx, key); err != nil {
			p.logger.Warn("feed key poll failed",
				slog.String("feed_key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
	}

	p.logger.Debug("feed poll complete", slog.Int("keys", len(keys)))
	return nil
}

func (p *FeedPoller) pollKey(ctx context.Context, key string) error {
	reading, err := p.feed.FetchProbability(ctx, key)
	if err != nil {
		return err
	}

	snap, err := p.tracker.Upsert(key, reading)
	if err != nil {
		return err
	}

	if err := p.cache.SetProb(ctx, key, snap.ProbYesShown, snap.UpdatedAt); err != nil {
		p.logger.Warn("price cache write failed",
			slog.String("feed_key", key),
			slog.String("error", err.Error()),
		)
	}

	evt, _ := json.Marshal(map[string]any{
		"event":          "price_update",
		"feed_key":       key,
		"prob_yes_raw":   snap.ProbYesRaw,
		"prob_yes_shown": snap.ProbYesShown,
		"frozen":         snap.Frozen,
		"timestamp":      snap.UpdatedAt.Format(time.RFC3339Nano),
	})
	if pubErr := p.bus.Publish(ctx, "prices", evt); pubErr != nil {
		p.logger.Warn("publish price event failed",
			slog.String("feed_key", key),
			slog.String("error", pubErr.Error()),
		)
	}

	return nil
}

// subscribedKeys lists the distinct feed keys of active markets.
func (p *FeedPoller) subscribedKeys(ctx context.Context) ([]string, error) {
	markets, err := p.markets.ListActive(ctx, domain.ListOpts{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(markets))
	keys := make([]string, 0, len(markets))
	for _, m := range markets {
		if m.FeedKey == "" {
			continue
		}
		if _, ok := seen[m.FeedKey]; ok {
			continue
		}
		seen[m.FeedKey] = struct{}{}
		keys = append(keys, m.FeedKey)
	}
	return keys, nil
}
