package domain

import (
	"context"
	"time"
)

// ListOpts carries standard pagination parameters for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore persists market metadata.
type MarketStore interface {
	Create(ctx context.Context, m Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	GetBySlug(ctx context.Context, slug string) (Market, error)
	ListActive(ctx context.Context, opts ListOpts) ([]Market, error)
	Update(ctx context.Context, m Market) error
}

// ReserveStore persists one ReserveState per market.
//
// Save performs an optimistic compare-and-swap: it only writes when the
// stored Version equals expectedVersion, returning ErrVersionConflict
// otherwise. Bootstrap overwrites the pair wholesale regardless of any
// concurrent trade, still bumping Version so in-flight CAS writers lose.
type ReserveStore interface {
	Load(ctx context.Context, marketID string) (ReserveState, error)
	Save(ctx context.Context, marketID string, state ReserveState, expectedVersion int64) error
	Bootstrap(ctx context.Context, marketID string, state ReserveState) error
}

// SnapshotStore keeps the historical reserve series used for charting and
// cold archival.
type SnapshotStore interface {
	Append(ctx context.Context, snap ReserveSnapshot) error
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]ReserveSnapshot, error)
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]ReserveSnapshot, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TradeStore is the trade ledger.
type TradeStore interface {
	Create(ctx context.Context, t Trade) error
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]Trade, error)
}
