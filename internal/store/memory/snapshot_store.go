package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// SnapshotStore is an in-memory implementation of domain.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data []domain.ReserveSnapshot
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Append stores one snapshot.
func (s *SnapshotStore) Append(_ context.Context, snap domain.ReserveSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data, snap)
	return nil
}

// ListByMarket returns snapshots for a market, newest first.
func (s *SnapshotStore) ListByMarket(_ context.Context, marketID string, opts domain.ListOpts) ([]domain.ReserveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ReserveSnapshot
	for _, snap := range s.data {
		if snap.MarketID == marketID {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// ListBefore returns up to limit snapshots older than cutoff, oldest first.
func (s *SnapshotStore) ListBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.ReserveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ReserveSnapshot
	for _, snap := range s.data {
		if snap.Timestamp.Before(cutoff) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteBefore removes snapshots older than cutoff and returns the count.
func (s *SnapshotStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data[:0]
	var removed int64
	for _, snap := range s.data {
		if snap.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, snap)
	}
	s.data = kept
	return removed, nil
}

// Compile-time interface check.
var _ domain.SnapshotStore = (*SnapshotStore)(nil)
