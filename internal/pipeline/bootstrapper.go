package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/engine"
	"github.com/dfelipebr/oddsmirror/internal/mirror"
)

// Bootstrapper periodically rewrites the reserve pools of feed-linked
// markets from the latest display probability, snapping local prices back
// to the upstream odds no matter how far trading has pushed them.
type Bootstrapper struct {
	markets   domain.MarketStore
	reserves  domain.ReserveStore
	snapshots domain.SnapshotStore
	tracker   *mirror.Tracker
	scale     float64
	logger    *slog.Logger
}

// NewBootstrapper creates a Bootstrapper. Non-positive scale falls back to
// engine.DefaultLiquidityScale.
func NewBootstrapper(
	markets domain.MarketStore,
	reserves domain.ReserveStore,
	snapshots domain.SnapshotStore,
	tracker *mirror.Tracker,
	scale float64,
	logger *slog.Logger,
) *Bootstrapper {
	if scale <= 0 {
		scale = engine.DefaultLiquidityScale
	}
	return &Bootstrapper{
		markets:   markets,
		reserves:  reserves,
		snapshots: snapshots,
		tracker:   tracker,
		scale:     scale,
		logger:    logger,
	}
}

// RunLoop rebalances on every tick until ctx is cancelled. Unlike the feed
// poller it does not run immediately: the first tick gives the poller time
// to seed the tracker.
func (b *Bootstrapper) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.RunOnce(ctx); err != nil {
				b.logger.Error("bootstrap run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce rebalances every active feed-linked market once. A failure on one
// market never blocks the others.
func (b *Bootstrapper) RunOnce(ctx context.Context) error {
	markets, err := b.markets.ListActive(ctx, domain.ListOpts{})
	if err != nil {
		return err
	}

	var rebalanced int
	for _, m := range markets {
		if m.FeedKey == "" {
			continue
		}
		if err := b.rebalance(ctx, m); err != nil {
			b.logger.Warn("market rebalance failed",
				slog.String("market_id", m.ID),
				slog.String("feed_key", m.FeedKey),
				slog.String("error", err.Error()),
			)
			continue
		}
		rebalanced++
	}

	b.logger.Debug("bootstrap run complete", slog.Int("rebalanced", rebalanced))
	return nil
}

func (b *Bootstrapper) rebalance(ctx context.Context, m domain.Market) error {
	prob, err := b.tracker.DisplayProb(m.FeedKey)
	if err != nil {
		// The tracker has no reading yet for this key; skip until the
		// poller observes one.
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	state := engine.ReservesFromProbability(prob, b.scale)
	if err := b.reserves.Bootstrap(ctx, m.ID, state); err != nil {
		return err
	}

	now := time.Now().UTC()
	if snapErr := b.snapshots.Append(ctx, domain.ReserveSnapshot{
		MarketID:  m.ID,
		Yes:       state.Yes,
		No:        state.No,
		K:         state.K,
		ProbYes:   state.Yes / state.Total(),
		Timestamp: now,
	}); snapErr != nil {
		b.logger.Warn("bootstrap snapshot failed",
			slog.String("market_id", m.ID),
			slog.String("error", snapErr.Error()),
		)
	}

	return nil
}
