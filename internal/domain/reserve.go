package domain

// Outcome identifies one side of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// Valid reports whether the outcome is one of the two known sides.
func (o Outcome) Valid() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// Opposite returns the other side of the market.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

// ReserveState is the AMM liquidity pool backing one binary market. Both
// reserves are virtual quantities, not escrowed funds. K is the constant
// product recomputed after every mutation; it is stored for observability
// rather than enforced as an invariant.
//
// Version increments on every persisted write and backs the optimistic
// compare-and-swap in the reserve store.
type ReserveState struct {
	Yes     float64
	No      float64
	K       float64
	Version int64
}

// Total returns the combined reserve on both sides.
func (r ReserveState) Total() float64 {
	return r.Yes + r.No
}

// Empty reports whether the pool has never been seeded.
func (r ReserveState) Empty() bool {
	return r.Yes == 0 && r.No == 0
}

// TradeResult is the outcome of a single buy or sell simulation against the
// bonding curve. Shares is negative for sells. Cost is the cash flow from
// the trader into the pool, so it is negative for sells (the proceeds paid
// out). The result is ephemeral: only its effects (NewReserves, ledger
// entries) are persisted.
type TradeResult struct {
	Shares      float64
	AvgPrice    float64
	Cost        float64
	NewReserves ReserveState
}

// Proceeds returns the cash paid out to the trader on a sell, zero otherwise.
func (t TradeResult) Proceeds() float64 {
	if t.Cost < 0 {
		return -t.Cost
	}
	return 0
}
