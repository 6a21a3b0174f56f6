package engine

import "github.com/dfelipebr/oddsmirror/internal/domain"

const (
	// DefaultLiquidityScale is the total virtual liquidity seeded when
	// reserves are rebuilt from an external probability.
	DefaultLiquidityScale = 10_000

	// probFloor / probCeil clamp the incoming probability so a bootstrap can
	// never produce an all-or-nothing reserve pair.
	probFloor = 0.01
	probCeil  = 0.99
)

// ReservesFromProbability rebuilds a reserve pair so the displayed YES
// probability (yes/total) matches probYes. The pair replaces the stored
// reserves wholesale: this is not a trade, no shares are minted or burned,
// and any price impact from trades since the last bootstrap is discarded.
// A non-positive scale falls back to DefaultLiquidityScale.
func ReservesFromProbability(probYes, scale float64) domain.ReserveState {
	if scale <= 0 {
		scale = DefaultLiquidityScale
	}
	p := clamp(probYes, probFloor, probCeil)

	yes := p * scale
	no := (1 - p) * scale
	return domain.ReserveState{
		Yes: yes,
		No:  no,
		K:   yes * no,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
