package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/service"
)

// MarketService defines the methods that the market handler requires from
// the service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type MarketService interface {
	CreateMarket(ctx context.Context, in service.CreateMarketInput) (domain.Market, error)
	GetMarket(ctx context.Context, id string) (domain.Market, error)
	GetMarketBySlug(ctx context.Context, slug string) (domain.Market, error)
	ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
	ResolveMarket(ctx context.Context, id string, winner domain.Outcome) (domain.Market, error)
	Reserves(ctx context.Context, marketID string) (domain.ReserveState, error)
	History(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.ReserveSnapshot, error)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logger,
	}
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListMarkets returns active markets with pagination.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	markets, err := h.markets.ListActive(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to list markets")
		return
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// createMarketRequest is the POST body for market creation.
type createMarketRequest struct {
	Question       string  `json:"question"`
	Slug           string  `json:"slug"`
	FeedKey        string  `json:"feed_key"`
	InitialProbYes float64 `json:"initial_prob_yes"`
}

// CreateMarket creates a new market with seeded reserves.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	m, err := h.markets.CreateMarket(r.Context(), service.CreateMarketInput{
		Question:       req.Question,
		Slug:           req.Slug,
		FeedKey:        req.FeedKey,
		InitialProbYes: req.InitialProbYes,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create market failed",
			slog.String("slug", req.Slug),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to create market")
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// GetMarket returns a single market by its ID, or by slug when the ID does
// not match.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	m, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		m, err = h.markets.GetMarketBySlug(r.Context(), id)
	}
	if err != nil {
		writeServiceError(w, err, "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// resolveMarketRequest is the POST body for resolution.
type resolveMarketRequest struct {
	Winner string `json:"winner"`
}

// ResolveMarket settles a market to the winning outcome.
// POST /api/markets/{id}/resolve
func (h *MarketHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req resolveMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	m, err := h.markets.ResolveMarket(r.Context(), id, domain.Outcome(req.Winner))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: resolve market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to resolve market")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// GetReserves returns the current reserve pool for a market.
// GET /api/markets/{id}/reserves
func (h *MarketHandler) GetReserves(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	state, err := h.markets.Reserves(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to load reserves")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// GetHistory returns the reserve snapshot series for a market, newest first.
// GET /api/markets/{id}/history?limit=50&offset=0
func (h *MarketHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	opts := parseListOpts(r)
	snaps, err := h.markets.History(r.Context(), id, opts)
	if err != nil {
		writeServiceError(w, err, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": snaps,
		"limit":     opts.Limit,
		"offset":    opts.Offset,
	})
}
