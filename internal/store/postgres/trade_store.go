package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Create appends a trade to the ledger.
func (s *TradeStore) Create(ctx context.Context, t domain.Trade) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trades (id, market_id, outcome, side, stake, fee, shares, avg_price, proceeds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.MarketID, string(t.Outcome), string(t.Side),
		t.Stake, t.Fee, t.Shares, t.AvgPrice, t.Proceeds, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create trade %s: %w", t.ID, err)
	}
	return nil
}

// ListByMarket returns trades for a market, newest first, with pagination.
func (s *TradeStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, market_id, outcome, side, stake, fee, shares, avg_price, proceeds, created_at
		FROM trades
		WHERE market_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		marketID, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades %s: %w", marketID, err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var outcome, side string
		if err := rows.Scan(
			&t.ID, &t.MarketID, &outcome, &side,
			&t.Stake, &t.Fee, &t.Shares, &t.AvgPrice, &t.Proceeds, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		t.Outcome = domain.Outcome(outcome)
		t.Side = domain.TradeSide(side)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list trades rows: %w", err)
	}
	return trades, nil
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)
