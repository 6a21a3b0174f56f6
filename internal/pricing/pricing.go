// Package pricing reconciles the two-tier pricing model: users are shown the
// market's displayed implied probability with no visible markup, while a
// platform fee is silently deducted from the stake before shares are
// computed. It operates directly on a reserve snapshot and is independent of
// the engine's discretized curve walk; for large trades relative to
// liquidity the two can diverge, which is a documented property of the
// system rather than a bug.
package pricing

import (
	"fmt"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

const (
	// DefaultFeeBps is the platform fee in basis points (200 = 2 %).
	DefaultFeeBps = 200

	// MinProbability is the floor below which a quote is refused; granting
	// shares at near-zero probability would hand out a near-infinite payout
	// and signals the market needs rebalancing.
	MinProbability = 0.001
)

// Quote is the full preview of what a stake buys at the current reserves.
// DisplayProbYes/No use the same-side-over-total convention (a market with
// 8000 YES / 2000 NO reserve displays 80 % YES), which intentionally differs
// from the engine's spot price convention.
type Quote struct {
	DisplayProbYes  float64
	DisplayProbNo   float64
	OddsYes         float64
	OddsNo          float64
	Stake           float64
	FeeBps          int
	PlatformFee     float64
	NetStake        float64
	Shares          float64
	AvgPrice        float64
	PotentialPayout float64
	PotentialProfit float64
	Outcome         domain.Outcome
}

// Compute prices a stake on the given outcome against a reserve snapshot.
// It is pure and side-effect-free: the same function backs both no-commitment
// previews and the pricing step immediately before a committed trade.
// feeBps <= 0 falls back to DefaultFeeBps.
func Compute(reserves domain.ReserveState, stake float64, outcome domain.Outcome, feeBps int) (Quote, error) {
	if reserves.Yes <= 0 || reserves.No <= 0 {
		return Quote{}, fmt.Errorf("pricing: reserves must be positive (yes=%g no=%g): %w",
			reserves.Yes, reserves.No, domain.ErrInvalidInput)
	}
	if stake <= 0 {
		return Quote{}, fmt.Errorf("pricing: stake must be positive (got %g): %w", stake, domain.ErrInvalidInput)
	}
	if !outcome.Valid() {
		return Quote{}, fmt.Errorf("pricing: unknown outcome %q: %w", outcome, domain.ErrInvalidInput)
	}
	if feeBps <= 0 {
		feeBps = DefaultFeeBps
	}

	total := reserves.Total()
	probYes := reserves.Yes / total
	probNo := reserves.No / total

	selected := probYes
	if outcome == domain.OutcomeNo {
		selected = probNo
	}
	if selected < MinProbability {
		return Quote{}, fmt.Errorf("pricing: %s probability %.6f below %.3f: %w",
			outcome, selected, MinProbability, domain.ErrNeedsRebalance)
	}

	fee := stake * float64(feeBps) / 10_000
	net := stake - fee
	shares := net / selected

	return Quote{
		DisplayProbYes:  probYes,
		DisplayProbNo:   probNo,
		OddsYes:         1 / probYes,
		OddsNo:          1 / probNo,
		Stake:           stake,
		FeeBps:          feeBps,
		PlatformFee:     fee,
		NetStake:        net,
		Shares:          shares,
		AvgPrice:        selected,
		PotentialPayout: shares,
		PotentialProfit: shares - stake,
		Outcome:         outcome,
	}, nil
}
