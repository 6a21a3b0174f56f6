package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// ReserveStore implements domain.ReserveStore using PostgreSQL. Writes are
// guarded by an explicit version column: Save compiles to a conditional
// UPDATE so two racing writers cannot silently clobber each other's reserve
// state.
type ReserveStore struct {
	pool *pgxpool.Pool
}

// NewReserveStore creates a ReserveStore backed by the given connection pool.
func NewReserveStore(pool *pgxpool.Pool) *ReserveStore {
	return &ReserveStore{pool: pool}
}

// Load retrieves the reserves for a market.
func (s *ReserveStore) Load(ctx context.Context, marketID string) (domain.ReserveState, error) {
	var state domain.ReserveState
	err := s.pool.QueryRow(ctx,
		`SELECT yes_reserve, no_reserve, k, version FROM reserves WHERE market_id = $1`,
		marketID,
	).Scan(&state.Yes, &state.No, &state.K, &state.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReserveState{}, domain.ErrNotFound
		}
		return domain.ReserveState{}, fmt.Errorf("postgres: load reserves %s: %w", marketID, err)
	}
	return state, nil
}

// Save writes the reserve pair only when the stored version still matches
// expectedVersion. A zero-row update means another writer got there first.
func (s *ReserveStore) Save(ctx context.Context, marketID string, state domain.ReserveState, expectedVersion int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE reserves
		SET yes_reserve = $2, no_reserve = $3, k = $4,
		    version = version + 1, updated_at = NOW()
		WHERE market_id = $1 AND version = $5`,
		marketID, state.Yes, state.No, state.K, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("postgres: save reserves %s: %w", marketID, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a stale version.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM reserves WHERE market_id = $1)", marketID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: save reserves %s: %w", marketID, err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

// Bootstrap overwrites the reserve pair wholesale, creating the row when it
// does not exist. The version is bumped unconditionally so any in-flight
// compare-and-swap writer loses and retries against the fresh pair.
func (s *ReserveStore) Bootstrap(ctx context.Context, marketID string, state domain.ReserveState) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reserves (market_id, yes_reserve, no_reserve, k, version, updated_at)
		VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (market_id) DO UPDATE SET
			yes_reserve = EXCLUDED.yes_reserve,
			no_reserve  = EXCLUDED.no_reserve,
			k           = EXCLUDED.k,
			version     = reserves.version + 1,
			updated_at  = NOW()`,
		marketID, state.Yes, state.No, state.K,
	)
	if err != nil {
		return fmt.Errorf("postgres: bootstrap reserves %s: %w", marketID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ReserveStore = (*ReserveStore)(nil)
