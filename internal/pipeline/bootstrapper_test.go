package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/mirror"
	"github.com/dfelipebr/oddsmirror/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapper_RunOnce(t *testing.T) {
	ctx := context.Background()
	markets := memory.NewMarketStore()
	activeMarket(t, markets, "m1", "k")

	tracker := mirror.NewTracker(mirror.DefaultConfig())
	_, err := tracker.Upsert("k", domain.FeedReading{ProbYes: 0.73, Timestamp: time.Now().UTC()})
	require.NoError(t, err)

	reserves := memory.NewReserveStore()
	snapshots := memory.NewSnapshotStore()
	b := NewBootstrapper(markets, reserves, snapshots, tracker, 10_000, slog.New(slog.DiscardHandler))

	require.NoError(t, b.RunOnce(ctx))

	state, err := reserves.Load(ctx, "m1")
	require.NoError(t, err)
	assert.InDelta(t, 7300, state.Yes, 1e-6)
	assert.InDelta(t, 2700, state.No, 1e-6)
	assert.Equal(t, int64(1), state.Version)

	snaps, err := snapshots.ListByMarket(ctx, "m1", domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.InDelta(t, 0.73, snaps[0].ProbYes, 1e-9)
}

func TestBootstrapper_OverwritesTradedReserves(t *testing.T) {
	ctx := context.Background()
	markets := memory.NewMarketStore()
	activeMarket(t, markets, "m1", "k")

	tracker := mirror.NewTracker(mirror.DefaultConfig())
	_, err := tracker.Upsert("k", domain.FeedReading{ProbYes: 0.60, Timestamp: time.Now().UTC()})
	require.NoError(t, err)

	reserves := memory.NewReserveStore()
	// Trades have pushed the pool far from the feed.
	require.NoError(t, reserves.Bootstrap(ctx, "m1", domain.ReserveState{Yes: 9100, No: 900}))

	b := NewBootstrapper(markets, reserves, memory.NewSnapshotStore(), tracker, 10_000, slog.New(slog.DiscardHandler))
	require.NoError(t, b.RunOnce(ctx))

	state, err := reserves.Load(ctx, "m1")
	require.NoError(t, err)
	assert.InDelta(t, 6000, state.Yes, 1e-6)
	// The overwrite bumps the version so a racing trade's CAS write loses.
	assert.Equal(t, int64(2), state.Version)
}

func TestBootstrapper_SkipsUntrackedAndUnlinkedMarkets(t *testing.T) {
	ctx := context.Background()
	markets := memory.NewMarketStore()
	activeMarket(t, markets, "m1", "never-polled")
	activeMarket(t, markets, "m2", "")

	reserves := memory.NewReserveStore()
	b := NewBootstrapper(markets, reserves, memory.NewSnapshotStore(),
		mirror.NewTracker(mirror.DefaultConfig()), 10_000, slog.New(slog.DiscardHandler))

	require.NoError(t, b.RunOnce(ctx))

	// No reading has reached the tracker, so neither pool was touched.
	_, err := reserves.Load(ctx, "m1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = reserves.Load(ctx, "m2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBootstrapper_UsesDisplayNotRawProbability(t *testing.T) {
	ctx := context.Background()
	markets := memory.NewMarketStore()
	activeMarket(t, markets, "m1", "k")

	tracker := mirror.NewTracker(mirror.DefaultConfig())
	now := time.Now().UTC()
	_, err := tracker.Upsert("k", domain.FeedReading{ProbYes: 0.50, Timestamp: now})
	require.NoError(t, err)
	// Spike: raw jumps but the display stays pinned.
	_, err = tracker.Upsert("k", domain.FeedReading{ProbYes: 0.70, Timestamp: now.Add(time.Second)})
	require.NoError(t, err)

	reserves := memory.NewReserveStore()
	b := NewBootstrapper(markets, reserves, memory.NewSnapshotStore(), tracker, 10_000, slog.New(slog.DiscardHandler))
	require.NoError(t, b.RunOnce(ctx))

	state, err := reserves.Load(ctx, "m1")
	require.NoError(t, err)
	assert.InDelta(t, 5000, state.Yes, 1e-6)
}
