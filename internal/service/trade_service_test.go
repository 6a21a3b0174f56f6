package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/engine"
	"github.com/dfelipebr/oddsmirror/internal/pricing"
	"github.com/dfelipebr/oddsmirror/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tradeFixture struct {
	svc      *TradeService
	markets  *memory.MarketStore
	reserves domain.ReserveStore
	trades   *memory.TradeStore
	bus      *memory.SignalBus
	market   domain.Market
}

func newTradeFixture(t *testing.T, reserves domain.ReserveStore) *tradeFixture {
	t.Helper()

	markets := memory.NewMarketStore()
	trades := memory.NewTradeStore()
	bus := memory.NewSignalBus()

	svc := NewTradeService(
		markets,
		reserves,
		trades,
		memory.NewSnapshotStore(),
		memory.NewLockManager(),
		bus,
		engine.New(engine.DefaultConfig()),
		pricing.DefaultFeeBps,
		slog.New(slog.DiscardHandler),
	)

	ctx := context.Background()
	m := domain.Market{ID: "m1", Question: "q", Slug: "s", Status: domain.MarketStatusActive}
	require.NoError(t, markets.Create(ctx, m))
	require.NoError(t, reserves.Bootstrap(ctx, m.ID, engine.ReservesFromProbability(0.5, 10_000)))

	return &tradeFixture{svc: svc, markets: markets, reserves: reserves, trades: trades, bus: bus, market: m}
}

func TestTradeService_Preview(t *testing.T) {
	f := newTradeFixture(t, memory.NewReserveStore())
	ctx := context.Background()

	q, err := f.svc.Preview(ctx, f.market.ID, 100, domain.OutcomeYes)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, q.DisplayProbYes, 1e-9)
	assert.InDelta(t, 2.0, q.PlatformFee, 1e-9)
	assert.InDelta(t, 196.0, q.Shares, 1e-9)

	// Preview never mutates reserves.
	state, err := f.reserves.Load(ctx, f.market.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5000, state.Yes, 1e-6)
	assert.Equal(t, int64(1), state.Version)
}

func TestTradeService_Buy(t *testing.T) {
	f := newTradeFixture(t, memory.NewReserveStore())
	ctx := context.Background()

	trade, err := f.svc.Buy(ctx, f.market.ID, 100, domain.OutcomeYes)
	require.NoError(t, err)

	assert.Equal(t, domain.TradeSideBuy, trade.Side)
	assert.InDelta(t, 100.0, trade.Stake, 1e-9)
	assert.InDelta(t, 2.0, trade.Fee, 1e-9)
	assert.Greater(t, trade.Shares, 0.0)
	assert.False(t, trade.CreatedAt.IsZero())

	// The curve walk spent the net stake, so reserves moved and the version
	// advanced past the bootstrap write.
	state, err := f.reserves.Load(ctx, f.market.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5098.0, state.No, 1e-6)
	assert.Less(t, state.Yes, 5000.0)
	assert.Equal(t, int64(2), state.Version)

	ledger, err := f.svc.ListByMarket(ctx, f.market.ID, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, trade.ID, ledger[0].ID)
}

func TestTradeService_Buy_PublishesEvent(t *testing.T) {
	f := newTradeFixture(t, memory.NewReserveStore())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := f.bus.Subscribe(ctx, "trades")
	require.NoError(t, err)

	trade, err := f.svc.Buy(ctx, f.market.ID, 50, domain.OutcomeNo)
	require.NoError(t, err)

	select {
	case payload := <-events:
		assert.Contains(t, string(payload), trade.ID)
		assert.Contains(t, string(payload), `"side":"buy"`)
	default:
		t.Fatal("expected a trade event on the bus")
	}
}

func TestTradeService_Sell(t *testing.T) {
	f := newTradeFixture(t, memory.NewReserveStore())
	ctx := context.Background()

	trade, err := f.svc.Sell(ctx, f.market.ID, 100, domain.OutcomeYes)
	require.NoError(t, err)

	assert.Equal(t, domain.TradeSideSell, trade.Side)
	assert.InDelta(t, -100.0, trade.Shares, 1e-9)
	assert.Greater(t, trade.Proceeds, 0.0)
	assert.Zero(t, trade.Stake)
	assert.Zero(t, trade.Fee)

	state, err := f.reserves.Load(ctx, f.market.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5100, state.Yes, 1e-6)
}

func TestTradeService_RejectsResolvedMarket(t *testing.T) {
	f := newTradeFixture(t, memory.NewReserveStore())
	ctx := context.Background()

	m := f.market
	m.Status = domain.MarketStatusResolved
	require.NoError(t, f.markets.Update(ctx, m))

	_, err := f.svc.Buy(ctx, m.ID, 100, domain.OutcomeYes)
	assert.ErrorIs(t, err, domain.ErrMarketResolved)

	_, err = f.svc.Sell(ctx, m.ID, 10, domain.OutcomeYes)
	assert.ErrorIs(t, err, domain.ErrMarketResolved)
}

func TestTradeService_InputValidation(t *testing.T) {
	f := newTradeFixture(t, memory.NewReserveStore())
	ctx := context.Background()

	_, err := f.svc.Buy(ctx, f.market.ID, 0, domain.OutcomeYes)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Buy(ctx, f.market.ID, 100, domain.Outcome("maybe"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Sell(ctx, f.market.ID, -5, domain.OutcomeYes)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// conflictingReserveStore fails the first n Save calls with a version
// conflict, simulating a feed bootstrap racing the trade.
type conflictingReserveStore struct {
	*memory.ReserveStore
	conflicts int
	saves     int
}

func (s *conflictingReserveStore) Save(ctx context.Context, marketID string, state domain.ReserveState, expectedVersion int64) error {
	s.saves++
	if s.saves <= s.conflicts {
		return domain.ErrVersionConflict
	}
	return s.ReserveStore.Save(ctx, marketID, state, expectedVersion)
}

func TestTradeService_RetriesVersionConflict(t *testing.T) {
	store := &conflictingReserveStore{ReserveStore: memory.NewReserveStore(), conflicts: 2}
	f := newTradeFixture(t, store)
	ctx := context.Background()

	trade, err := f.svc.Buy(ctx, f.market.ID, 100, domain.OutcomeYes)
	require.NoError(t, err)
	assert.Greater(t, trade.Shares, 0.0)
	assert.Equal(t, 3, store.saves)
}

func TestTradeService_GivesUpAfterRepeatedConflicts(t *testing.T) {
	store := &conflictingReserveStore{ReserveStore: memory.NewReserveStore(), conflicts: 10}
	f := newTradeFixture(t, store)

	_, err := f.svc.Buy(context.Background(), f.market.ID, 100, domain.OutcomeYes)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, 3, store.saves)
}
