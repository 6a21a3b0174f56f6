// Package engine implements the constant-product market maker that prices
// binary outcome shares. All functions are pure: they operate on a snapshot
// of reserves and return the resulting state without touching storage.
package engine

import (
	"github.com/dfelipebr/oddsmirror/internal/domain"
)

const (
	// DefaultStepSize is the share increment used when walking the bonding
	// curve. Smaller steps track the continuous curve more closely at the
	// cost of more iterations.
	DefaultStepSize = 0.01

	// DefaultEpsilon seeds the opposite-side reserve on the very first trade
	// of an empty market so the next price query does not divide by zero.
	DefaultEpsilon = 0.01
)

// Config carries the engine's tuning knobs. The zero value is not usable;
// call DefaultConfig or fill both fields.
type Config struct {
	StepSize float64
	Epsilon  float64
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		StepSize: DefaultStepSize,
		Epsilon:  DefaultEpsilon,
	}
}

// Engine walks the constant-product bonding curve in discrete steps.
type Engine struct {
	cfg Config
}

// New creates an Engine. Non-positive config fields fall back to defaults.
func New(cfg Config) *Engine {
	if cfg.StepSize <= 0 {
		cfg.StepSize = DefaultStepSize
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultEpsilon
	}
	return &Engine{cfg: cfg}
}

// Price returns the spot price of one share of the given outcome, interpreted
// as its implied probability. The convention is opposite-reserve-over-total:
// a larger opposing reserve makes the outcome cheaper, i.e. more probable.
// ok is false when the pool has no liquidity at all.
func Price(outcome domain.Outcome, state domain.ReserveState) (price float64, ok bool) {
	if state.Empty() {
		return 0, false
	}
	if outcome == domain.OutcomeYes {
		return state.No / state.Total(), true
	}
	return state.Yes / state.Total(), true
}

// Buy simulates spending stake on shares of the given outcome.
//
// On an empty pool this is the bootstrap trade: shares are granted 1:1 at an
// average price of 1.0, the chosen reserve is set to the stake and the
// opposite reserve to epsilon. The post-trade price is effectively
// ill-defined until a second trade or an external re-bootstrap.
//
// Otherwise the engine walks the curve in StepSize increments, spending
// price*step per step and repricing from the moved reserves, with a
// proportional partial step to exhaust the remaining budget. A stake larger
// than the pool can absorb is not an error: the price asymptotically
// approaches 1 and shares per unit stake diminish.
func (e *Engine) Buy(stake float64, outcome domain.Outcome, state domain.ReserveState) domain.TradeResult {
	if state.Empty() {
		return e.bootstrapBuy(stake, outcome, state)
	}

	yes, no := state.Yes, state.No
	step := e.cfg.StepSize
	var shares, cost float64

	for cost < stake {
		chosen, opposite := &yes, &no
		if outcome == domain.OutcomeNo {
			chosen, opposite = &no, &yes
		}
		// No inventory left on the chosen side; stop rather than walk the
		// reserve negative.
		if *chosen <= step {
			break
		}

		price := *opposite / (yes + no)
		stepCost := price * step

		if cost+stepCost > stake {
			remaining := stake - cost
			partial := remaining / price
			shares += partial
			cost = stake
			*chosen -= partial
			*opposite += remaining
			break
		}

		shares += step
		cost += stepCost
		*chosen -= step
		*opposite += stepCost
	}

	avg := 0.0
	if shares > 0 {
		avg = cost / shares
	}
	return domain.TradeResult{
		Shares:   shares,
		AvgPrice: avg,
		Cost:     cost,
		NewReserves: domain.ReserveState{
			Yes:     yes,
			No:      no,
			K:       yes * no,
			Version: state.Version,
		},
	}
}

// bootstrapBuy handles the first trade ever on a market.
func (e *Engine) bootstrapBuy(stake float64, outcome domain.Outcome, state domain.ReserveState) domain.TradeResult {
	yes, no := stake, e.cfg.Epsilon
	if outcome == domain.OutcomeNo {
		yes, no = e.cfg.Epsilon, stake
	}
	return domain.TradeResult{
		Shares:   stake,
		AvgPrice: 1.0,
		Cost:     stake,
		NewReserves: domain.ReserveState{
			Yes:     yes,
			No:      no,
			K:       yes * no,
			Version: state.Version,
		},
	}
}

// Sell simulates selling sharesToSell of the given outcome back to the
// curve. It mirrors Buy: shares return to the chosen reserve and the
// corresponding value leaves the opposite reserve as proceeds. Shares in the
// result is the negative of sharesToSell to signal a sale. There is no floor
// on proceeds; selling into the curve pushes the outcome's price toward zero.
func (e *Engine) Sell(sharesToSell float64, outcome domain.Outcome, state domain.ReserveState) domain.TradeResult {
	yes, no := state.Yes, state.No
	step := e.cfg.StepSize
	remaining := sharesToSell
	var proceeds float64

	for remaining > 0 {
		s := step
		if remaining < step {
			s = remaining
		}

		chosen, opposite := &yes, &no
		if outcome == domain.OutcomeNo {
			chosen, opposite = &no, &yes
		}

		price := *opposite / (yes + no)
		value := price * s

		*chosen += s
		*opposite -= value
		proceeds += value
		remaining -= s
	}

	avg := 0.0
	if sharesToSell > 0 {
		avg = proceeds / sharesToSell
	}
	return domain.TradeResult{
		Shares:   -sharesToSell,
		AvgPrice: avg,
		Cost:     -proceeds,
		NewReserves: domain.ReserveState{
			Yes:     yes,
			No:      no,
			K:       yes * no,
			Version: state.Version,
		},
	}
}
