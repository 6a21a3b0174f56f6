package domain

import "time"

// TradeSide distinguishes curve buys from sells in the ledger.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Trade is one executed trade recorded in the ledger. Stake is the gross
// amount the user committed (buys) and Fee the platform fee withheld from it;
// both are zero for sells, where Proceeds carries the curve payout instead.
type Trade struct {
	ID        string
	MarketID  string
	Outcome   Outcome
	Side      TradeSide
	Stake     float64
	Fee       float64
	Shares    float64
	AvgPrice  float64
	Proceeds  float64
	CreatedAt time.Time
}
