package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// TradeStore is an in-memory implementation of domain.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data []domain.Trade
}

// NewTradeStore creates an empty in-memory trade ledger.
func NewTradeStore() *TradeStore {
	return &TradeStore{}
}

// Create appends a trade to the ledger.
func (s *TradeStore) Create(_ context.Context, t domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data, t)
	return nil
}

// ListByMarket returns trades for a market, newest first.
func (s *TradeStore) ListByMarket(_ context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Trade
	for _, t := range s.data {
		if t.MarketID == marketID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

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

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)
