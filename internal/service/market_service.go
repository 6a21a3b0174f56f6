// Package service contains the application services coordinating the AMM
// engine, stores, caches, and signal bus.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/engine"
)

// MarketService handles market lifecycle: creation with reserve seeding,
// lookup, listing, and resolution.
type MarketService struct {
	markets   domain.MarketStore
	reserves  domain.ReserveStore
	snapshots domain.SnapshotStore
	scale     float64
	logger    *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
// scale is the total liquidity used when seeding reserves; non-positive
// values fall back to engine.DefaultLiquidityScale.
func NewMarketService(
	markets domain.MarketStore,
	reserves domain.ReserveStore,
	snapshots domain.SnapshotStore,
	scale float64,
	logger *slog.Logger,
) *MarketService {
	if scale <= 0 {
		scale = engine.DefaultLiquidityScale
	}
	return &MarketService{
		markets:   markets,
		reserves:  reserves,
		snapshots: snapshots,
		scale:     scale,
		logger:    logger,
	}
}

// CreateMarketInput carries the parameters for a new market. InitialProbYes
// defaults to 0.5 (symmetric reserves) when zero.
type CreateMarketInput struct {
	Question       string
	Slug           string
	FeedKey        string
	InitialProbYes float64
}

// CreateMarket creates a market and seeds its reserve pool from the initial
// probability.
func (s *MarketService) CreateMarket(ctx context.Context, in CreateMarketInput) (domain.Market, error) {
	if strings.TrimSpace(in.Question) == "" {
		return domain.Market{}, fmt.Errorf("market_service: empty question: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Slug) == "" {
		return domain.Market{}, fmt.Errorf("market_service: empty slug: %w", domain.ErrInvalidInput)
	}
	if in.InitialProbYes < 0 || in.InitialProbYes > 1 {
		return domain.Market{}, fmt.Errorf("market_service: initial probability %g outside [0,1]: %w",
			in.InitialProbYes, domain.ErrInvalidInput)
	}
	if _, err := s.markets.GetBySlug(ctx, in.Slug); err == nil {
		return domain.Market{}, fmt.Errorf("market_service: slug %q: %w", in.Slug, domain.ErrAlreadyExists)
	}

	prob := in.InitialProbYes
	if prob == 0 {
		prob = 0.5
	}

	now := time.Now().UTC()
	m := domain.Market{
		ID:        uuid.NewString(),
		Question:  strings.TrimSpace(in.Question),
		Slug:      strings.TrimSpace(in.Slug),
		FeedKey:   strings.TrimSpace(in.FeedKey),
		Status:    domain.MarketStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.markets.Create(ctx, m); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create %q: %w", m.Slug, err)
	}

	seed := engine.ReservesFromProbability(prob, s.scale)
	if err := s.reserves.Bootstrap(ctx, m.ID, seed); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: seed reserves for %q: %w", m.ID, err)
	}

	if snapErr := s.snapshots.Append(ctx, domain.ReserveSnapshot{
		MarketID:  m.ID,
		Yes:       seed.Yes,
		No:        seed.No,
		K:         seed.K,
		ProbYes:   seed.Yes / seed.Total(),
		Timestamp: now,
	}); snapErr != nil {
		s.logger.WarnContext(ctx, "market_service: seed snapshot failed",
			slog.String("market_id", m.ID),
			slog.String("error", snapErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "market_service: created market",
		slog.String("market_id", m.ID),
		slog.String("slug", m.Slug),
		slog.Float64("initial_prob_yes", prob),
	)

	return m, nil
}

// GetMarket retrieves a market by ID.
func (s *MarketService) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	m, err := s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get by id %q: %w", id, err)
	}
	return m, nil
}

// GetMarketBySlug retrieves a market by its URL slug.
func (s *MarketService) GetMarketBySlug(ctx context.Context, slug string) (domain.Market, error) {
	m, err := s.markets.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get by slug %q: %w", slug, err)
	}
	return m, nil
}

// ListActive returns active markets with pagination.
func (s *MarketService) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.ListActive(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list active: %w", err)
	}
	return markets, nil
}

// ResolveMarket settles a market to the winning outcome. Resolved markets
// reject further trades and feed bootstraps.
func (s *MarketService) ResolveMarket(ctx context.Context, id string, winner domain.Outcome) (domain.Market, error) {
	if !winner.Valid() {
		return domain.Market{}, fmt.Errorf("market_service: invalid winner %q: %w", winner, domain.ErrInvalidInput)
	}

	m, err := s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get by id %q: %w", id, err)
	}
	if m.Status == domain.MarketStatusResolved {
		return domain.Market{}, fmt.Errorf("market_service: market %q: %w", id, domain.ErrMarketResolved)
	}

	now := time.Now().UTC()
	m.Status = domain.MarketStatusResolved
	m.Winner = winner
	m.ResolvedAt = &now
	m.UpdatedAt = now

	if err := s.markets.Update(ctx, m); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: resolve %q: %w", id, err)
	}

	s.logger.InfoContext(ctx, "market_service: resolved market",
		slog.String("market_id", id),
		slog.String("winner", string(winner)),
	)

	return m, nil
}

// Reserves returns the current reserve state for a market.
func (s *MarketService) Reserves(ctx context.Context, marketID string) (domain.ReserveState, error) {
	state, err := s.reserves.Load(ctx, marketID)
	if err != nil {
		return domain.ReserveState{}, fmt.Errorf("market_service: load reserves for %q: %w", marketID, err)
	}
	return state, nil
}

// History returns the reserve snapshot series for a market, newest first.
func (s *MarketService) History(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.ReserveSnapshot, error) {
	snaps, err := s.snapshots.ListByMarket(ctx, marketID, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: history for %q: %w", marketID, err)
	}
	return snaps, nil
}
