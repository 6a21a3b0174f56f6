package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMarketService() (*MarketService, *memory.ReserveStore, *memory.SnapshotStore) {
	reserves := memory.NewReserveStore()
	snapshots := memory.NewSnapshotStore()
	svc := NewMarketService(memory.NewMarketStore(), reserves, snapshots, 10_000, slog.New(slog.DiscardHandler))
	return svc, reserves, snapshots
}

func TestMarketService_CreateMarket(t *testing.T) {
	svc, reserves, snapshots := newMarketService()
	ctx := context.Background()

	m, err := svc.CreateMarket(ctx, CreateMarketInput{
		Question:       "Will it rain tomorrow?",
		Slug:           "rain-tomorrow",
		FeedKey:        "weather-rain",
		InitialProbYes: 0.7,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, domain.MarketStatusActive, m.Status)
	assert.Equal(t, "rain-tomorrow", m.Slug)
	assert.False(t, m.CreatedAt.IsZero())

	state, err := reserves.Load(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 7000, state.Yes, 1e-6)
	assert.InDelta(t, 3000, state.No, 1e-6)
	assert.InDelta(t, 0.7, state.Yes/state.Total(), 1e-9)

	snaps, err := snapshots.ListByMarket(ctx, m.ID, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.InDelta(t, 0.7, snaps[0].ProbYes, 1e-9)
}

func TestMarketService_CreateMarket_DefaultsToEven(t *testing.T) {
	svc, reserves, _ := newMarketService()
	ctx := context.Background()

	m, err := svc.CreateMarket(ctx, CreateMarketInput{Question: "q", Slug: "even"})
	require.NoError(t, err)

	state, err := reserves.Load(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5000, state.Yes, 1e-6)
	assert.InDelta(t, 5000, state.No, 1e-6)
}

func TestMarketService_CreateMarket_Validation(t *testing.T) {
	svc, _, _ := newMarketService()
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateMarketInput
	}{
		{"empty question", CreateMarketInput{Slug: "s"}},
		{"empty slug", CreateMarketInput{Question: "q"}},
		{"probability above one", CreateMarketInput{Question: "q", Slug: "s", InitialProbYes: 1.5}},
		{"negative probability", CreateMarketInput{Question: "q", Slug: "s", InitialProbYes: -0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMarket(ctx, tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestMarketService_CreateMarket_DuplicateSlug(t *testing.T) {
	svc, _, _ := newMarketService()
	ctx := context.Background()

	_, err := svc.CreateMarket(ctx, CreateMarketInput{Question: "q", Slug: "dupe"})
	require.NoError(t, err)

	_, err = svc.CreateMarket(ctx, CreateMarketInput{Question: "other", Slug: "dupe"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestMarketService_ResolveMarket(t *testing.T) {
	svc, _, _ := newMarketService()
	ctx := context.Background()

	m, err := svc.CreateMarket(ctx, CreateMarketInput{Question: "q", Slug: "s"})
	require.NoError(t, err)

	resolved, err := svc.ResolveMarket(ctx, m.ID, domain.OutcomeYes)
	require.NoError(t, err)
	assert.Equal(t, domain.MarketStatusResolved, resolved.Status)
	assert.Equal(t, domain.OutcomeYes, resolved.Winner)
	require.NotNil(t, resolved.ResolvedAt)

	// Resolving twice is rejected.
	_, err = svc.ResolveMarket(ctx, m.ID, domain.OutcomeNo)
	assert.ErrorIs(t, err, domain.ErrMarketResolved)
}

func TestMarketService_ResolveMarket_InvalidWinner(t *testing.T) {
	svc, _, _ := newMarketService()

	_, err := svc.ResolveMarket(context.Background(), "any", domain.Outcome("draw"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMarketService_GetMarket_NotFound(t *testing.T) {
	svc, _, _ := newMarketService()

	_, err := svc.GetMarket(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetMarketBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarketService_ListActive(t *testing.T) {
	svc, _, _ := newMarketService()
	ctx := context.Background()

	for _, slug := range []string{"a", "b", "c"} {
		_, err := svc.CreateMarket(ctx, CreateMarketInput{Question: "q " + slug, Slug: slug})
		require.NoError(t, err)
	}

	m, err := svc.GetMarketBySlug(ctx, "b")
	require.NoError(t, err)
	_, err = svc.ResolveMarket(ctx, m.ID, domain.OutcomeNo)
	require.NoError(t, err)

	active, err := svc.ListActive(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, active, 2)
	for _, am := range active {
		assert.NotEqual(t, "b", am.Slug)
	}
}
