package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Append stores one reserve snapshot.
func (s *SnapshotStore) Append(ctx context.Context, snap domain.ReserveSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reserve_snapshots (market_id, yes_reserve, no_reserve, k, prob_yes, ts)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.MarketID, snap.Yes, snap.No, snap.K, snap.ProbYes, snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: append snapshot %s: %w", snap.MarketID, err)
	}
	return nil
}

// ListByMarket returns snapshots for a market, newest first.
func (s *SnapshotStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.ReserveSnapshot, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT market_id, yes_reserve, no_reserve, k, prob_yes, ts
		FROM reserve_snapshots
		WHERE market_id = $1
		ORDER BY ts DESC
		LIMIT $2 OFFSET $3`,
		marketID, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots %s: %w", marketID, err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// ListBefore returns up to limit snapshots older than cutoff, oldest first.
func (s *SnapshotStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.ReserveSnapshot, error) {
	if limit <= 0 {
		limit = 10_000
	}

	rows, err := s.pool.Query(ctx, `
		SELECT market_id, yes_reserve, no_reserve, k, prob_yes, ts
		FROM reserve_snapshots
		WHERE ts < $1
		ORDER BY ts ASC
		LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before %v: %w", cutoff, err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// DeleteBefore removes snapshots older than cutoff and returns how many rows
// were deleted.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM reserve_snapshots WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before %v: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

func scanSnapshots(rows pgx.Rows) ([]domain.ReserveSnapshot, error) {
	var out []domain.ReserveSnapshot
	for rows.Next() {
		var snap domain.ReserveSnapshot
		if err := rows.Scan(&snap.MarketID, &snap.Yes, &snap.No, &snap.K, &snap.ProbYes, &snap.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: snapshot rows: %w", err)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.SnapshotStore = (*SnapshotStore)(nil)
