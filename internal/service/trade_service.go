package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/engine"
	"github.com/dfelipebr/oddsmirror/internal/pricing"
)

const (
	// casAttempts bounds the optimistic-concurrency retry loop. Beyond
	// this the per-market lock is presumed broken and the caller gets
	// the conflict error.
	casAttempts = 3

	// lockTTL caps how long one trade may hold the per-market lock.
	lockTTL = 5 * time.Second
)

// TradeService executes trades against the bonding curve with per-market
// locking and optimistic reserve persistence.
type TradeService struct {
	markets   domain.MarketStore
	reserves  domain.ReserveStore
	trades    domain.TradeStore
	snapshots domain.SnapshotStore
	locks     domain.LockManager
	bus       domain.SignalBus
	eng       *engine.Engine
	feeBps    int
	logger    *slog.Logger
}

// NewTradeService creates a TradeService with all required dependencies.
// Non-positive feeBps falls back to pricing.DefaultFeeBps.
func NewTradeService(
	markets domain.MarketStore,
	reserves domain.ReserveStore,
	trades domain.TradeStore,
	snapshots domain.SnapshotStore,
	locks domain.LockManager,
	bus domain.SignalBus,
	eng *engine.Engine,
	feeBps int,
	logger *slog.Logger,
) *TradeService {
	if feeBps <= 0 {
		feeBps = pricing.DefaultFeeBps
	}
	return &TradeService{
		markets:   markets,
		reserves:  reserves,
		trades:    trades,
		snapshots: snapshots,
		locks:     locks,
		bus:       bus,
		eng:       eng,
		feeBps:    feeBps,
		logger:    logger,
	}
}

// Preview computes the full quote a buy would produce without mutating any
// state. It is the single pricing surface the read API exposes.
func (s *TradeService) Preview(ctx context.Context, marketID string, stake float64, outcome domain.Outcome) (pricing.Quote, error) {
	state, err := s.reserves.Load(ctx, marketID)
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("trade_service: load reserves for %q: %w", marketID, err)
	}
	q, err := pricing.Compute(state, stake, outcome, s.feeBps)
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("trade_service: preview %q: %w", marketID, err)
	}
	return q, nil
}

// Buy stakes funds on an outcome. The platform fee is withheld from the
// stake before the curve walk; the returned trade records both.
func (s *TradeService) Buy(ctx context.Context, marketID string, stake float64, outcome domain.Outcome) (domain.Trade, error) {
	if stake <= 0 {
		return domain.Trade{}, fmt.Errorf("trade_service: non-positive stake %g: %w", stake, domain.ErrInvalidInput)
	}
	if !outcome.Valid() {
		return domain.Trade{}, fmt.Errorf("trade_service: invalid outcome %q: %w", outcome, domain.ErrInvalidInput)
	}

	return s.execute(ctx, marketID, func(state domain.ReserveState) (domain.Trade, domain.TradeResult, error) {
		q, err := pricing.Compute(state, stake, outcome, s.feeBps)
		if err != nil {
			return domain.Trade{}, domain.TradeResult{}, err
		}
		res := s.eng.Buy(q.NetStake, outcome, state)
		t := domain.Trade{
			ID:       uuid.NewString(),
			MarketID: marketID,
			Outcome:  outcome,
			Side:     domain.TradeSideBuy,
			Stake:    stake,
			Fee:      q.PlatformFee,
			Shares:   res.Shares,
			AvgPrice: res.AvgPrice,
		}
		return t, res, nil
	})
}

// Sell converts shares back into funds along the curve. Shares are trusted
// as given; position accounting is out of scope for the pricing core.
func (s *TradeService) Sell(ctx context.Context, marketID string, shares float64, outcome domain.Outcome) (domain.Trade, error) {
	if shares <= 0 {
		return domain.Trade{}, fmt.Errorf("trade_service: non-positive shares %g: %w", shares, domain.ErrInvalidInput)
	}
	if !outcome.Valid() {
		return domain.Trade{}, fmt.Errorf("trade_service: invalid outcome %q: %w", outcome, domain.ErrInvalidInput)
	}

	return s.execute(ctx, marketID, func(state domain.ReserveState) (domain.Trade, domain.TradeResult, error) {
		if state.Empty() {
			return domain.Trade{}, domain.TradeResult{}, fmt.Errorf("empty pool: %w", domain.ErrInvalidInput)
		}
		res := s.eng.Sell(shares, outcome, state)
		t := domain.Trade{
			ID:       uuid.NewString(),
			MarketID: marketID,
			Outcome:  outcome,
			Side:     domain.TradeSideSell,
			Shares:   res.Shares,
			AvgPrice: res.AvgPrice,
			Proceeds: res.Proceeds(),
		}
		return t, res, nil
	})
}

// execute runs the shared trade path: market status check, per-market lock,
// simulate, CAS-save reserves with retry, then ledger, snapshot, and event.
func (s *TradeService) execute(
	ctx context.Context,
	marketID string,
	simulate func(state domain.ReserveState) (domain.Trade, domain.TradeResult, error),
) (domain.Trade, error) {
	m, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("trade_service: get market %q: %w", marketID, err)
	}
	if m.Status == domain.MarketStatusResolved {
		return domain.Trade{}, fmt.Errorf("trade_service: market %q: %w", marketID, domain.ErrMarketResolved)
	}

	unlock, err := s.locks.Acquire(ctx, "trade:"+marketID, lockTTL)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("trade_service: acquire lock for %q: %w", marketID, err)
	}
	defer unlock()

	var (
		trade  domain.Trade
		result domain.TradeResult
	)
	for attempt := 1; ; attempt++ {
		state, err := s.reserves.Load(ctx, marketID)
		if err != nil {
			return domain.Trade{}, fmt.Errorf("trade_service: load reserves for %q: %w", marketID, err)
		}

		trade, result, err = simulate(state)
		if err != nil {
			return domain.Trade{}, fmt.Errorf("trade_service: trade on %q: %w", marketID, err)
		}

		err = s.reserves.Save(ctx, marketID, result.NewReserves, state.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= casAttempts {
			return domain.Trade{}, fmt.Errorf("trade_service: save reserves for %q: %w", marketID, err)
		}
		// A feed bootstrap raced the save; re-simulate on fresh reserves.
		s.logger.WarnContext(ctx, "trade_service: reserve version conflict, retrying",
			slog.String("market_id", marketID),
			slog.Int("attempt", attempt),
		)
	}

	trade.CreatedAt = time.Now().UTC()
	if err := s.trades.Create(ctx, trade); err != nil {
		return domain.Trade{}, fmt.Errorf("trade_service: record trade for %q: %w", marketID, err)
	}

	nr := result.NewReserves
	if snapErr := s.snapshots.Append(ctx, domain.ReserveSnapshot{
		MarketID:  marketID,
		Yes:       nr.Yes,
		No:        nr.No,
		K:         nr.K,
		ProbYes:   nr.Yes / nr.Total(),
		Timestamp: trade.CreatedAt,
	}); snapErr != nil {
		s.logger.WarnContext(ctx, "trade_service: snapshot append failed",
			slog.String("market_id", marketID),
			slog.String("error", snapErr.Error()),
		)
	}

	evt, _ := json.Marshal(map[string]any{
		"event":     "trade_executed",
		"trade_id":  trade.ID,
		"market_id": marketID,
		"outcome":   string(trade.Outcome),
		"side":      string(trade.Side),
		"shares":    trade.Shares,
		"avg_price": trade.AvgPrice,
		"timestamp": trade.CreatedAt.Format(time.RFC3339Nano),
	})
	if pubErr := s.bus.Publish(ctx, "trades", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "trade_service: publish trade event failed",
			slog.String("market_id", marketID),
			slog.String("error", pubErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "trade_service: executed trade",
		slog.String("trade_id", trade.ID),
		slog.String("market_id", marketID),
		slog.String("side", string(trade.Side)),
		slog.Float64("shares", trade.Shares),
	)

	return trade, nil
}

// ListByMarket returns the trade ledger for one market with pagination.
func (s *TradeService) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error) {
	trades, err := s.trades.ListByMarket(ctx, marketID, opts)
	if err != nil {
		return nil, fmt.Errorf("trade_service: list by market %q: %w", marketID, err)
	}
	return trades, nil
}
