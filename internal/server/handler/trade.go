package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dfelipebr/oddsmirror/internal/domain"
	"github.com/dfelipebr/oddsmirror/internal/pricing"
)

// TradeService defines the methods that the trade handler requires from the
// service layer.
type TradeService interface {
	Preview(ctx context.Context, marketID string, stake float64, outcome domain.Outcome) (pricing.Quote, error)
	Buy(ctx context.Context, marketID string, stake float64, outcome domain.Outcome) (domain.Trade, error)
	Sell(ctx context.Context, marketID string, shares float64, outcome domain.Outcome) (domain.Trade, error)
	ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error)
}

// TradeHandler serves quote and trade HTTP endpoints.
type TradeHandler struct {
	trades TradeService
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler with the given service and logger.
func NewTradeHandler(trades TradeService, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		trades: trades,
		logger: logger,
	}
}

// GetQuote computes a full buy quote without executing anything.
// GET /api/markets/{id}/quote?stake=100&outcome=yes
func (h *TradeHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	q := r.URL.Query()
	stake, err := strconv.ParseFloat(q.Get("stake"), 64)
	if err != nil || stake <= 0 {
		writeError(w, http.StatusBadRequest, "stake must be a positive number")
		return
	}
	outcome := domain.Outcome(q.Get("outcome"))
	if !outcome.Valid() {
		writeError(w, http.StatusBadRequest, `outcome must be "yes" or "no"`)
		return
	}

	quote, err := h.trades.Preview(r.Context(), id, stake, outcome)
	if err != nil {
		writeServiceError(w, err, "failed to compute quote")
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// tradeRequest is the POST body for trade execution.
type tradeRequest struct {
	Side    string  `json:"side"`    // "buy" or "sell"
	Outcome string  `json:"outcome"` // "yes" or "no"
	Stake   float64 `json:"stake"`   // buys
	Shares  float64 `json:"shares"`  // sells
}

// ExecuteTrade runs a buy or sell against the bonding curve.
// POST /api/markets/{id}/trades
func (h *TradeHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req tradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	outcome := domain.Outcome(req.Outcome)
	var (
		trade domain.Trade
		err   error
	)
	switch req.Side {
	case string(domain.TradeSideBuy):
		trade, err = h.trades.Buy(r.Context(), id, req.Stake, outcome)
	case string(domain.TradeSideSell):
		trade, err = h.trades.Sell(r.Context(), id, req.Shares, outcome)
	default:
		writeError(w, http.StatusBadRequest, `side must be "buy" or "sell"`)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: trade failed",
			slog.String("market_id", id),
			slog.String("side", req.Side),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to execute trade")
		return
	}

	writeJSON(w, http.StatusCreated, trade)
}

// ListTrades returns the trade ledger for a market.
// GET /api/markets/{id}/trades?limit=50&offset=0
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	opts := parseListOpts(r)
	trades, err := h.trades.ListByMarket(r.Context(), id, opts)
	if err != nil {
		writeServiceError(w, err, "failed to list trades")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}
