// Package memory provides in-memory store implementations used by the dev
// mode and by tests. They mirror the PostgreSQL stores' semantics, including
// the optimistic version check on reserve writes.
package memory

import (
	"context"
	"sync"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// ReserveStore is an in-memory implementation of domain.ReserveStore.
type ReserveStore struct {
	mu   sync.RWMutex
	data map[string]domain.ReserveState
}

// NewReserveStore creates an empty in-memory reserve store.
func NewReserveStore() *ReserveStore {
	return &ReserveStore{data: make(map[string]domain.ReserveState)}
}

// Load returns the stored reserves for marketID.
func (s *ReserveStore) Load(_ context.Context, marketID string) (domain.ReserveState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[marketID]
	if !ok {
		return domain.ReserveState{}, domain.ErrNotFound
	}
	return state, nil
}

// Save writes state only when the stored version matches expectedVersion,
// bumping the version on success.
func (s *ReserveStore) Save(_ context.Context, marketID string, state domain.ReserveState, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data[marketID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	state.Version = expectedVersion + 1
	s.data[marketID] = state
	return nil
}

// Bootstrap overwrites the reserve pair wholesale, creating the row if it
// does not exist and bumping the version so concurrent CAS writers lose.
func (s *ReserveStore) Bootstrap(_ context.Context, marketID string, state domain.ReserveState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.data[marketID]
	state.Version = current.Version + 1
	s.data[marketID] = state
	return nil
}

// Compile-time interface check.
var _ domain.ReserveStore = (*ReserveStore)(nil)
