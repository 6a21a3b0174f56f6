package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReservesFromProbability(t *testing.T) {
	tests := []struct {
		name    string
		probYes float64
		wantYes float64
		wantNo  float64
	}{
		{"even", 0.5, 5000, 5000},
		{"favourite", 0.8, 8000, 2000},
		{"longshot", 0.1, 1000, 9000},
		{"clamped low", 0.0, 100, 9900},
		{"clamped high", 1.0, 9900, 100},
		{"below floor", -0.3, 100, 9900},
		{"above ceiling", 1.7, 9900, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := ReservesFromProbability(tt.probYes, DefaultLiquidityScale)

			assert.InDelta(t, tt.wantYes, state.Yes, 1e-6)
			assert.InDelta(t, tt.wantNo, state.No, 1e-6)
			assert.InDelta(t, state.Yes*state.No, state.K, 1e-6)
			assert.Equal(t, int64(0), state.Version)
		})
	}
}

func TestReservesFromProbability_DefaultScale(t *testing.T) {
	state := ReservesFromProbability(0.6, 0)

	assert.InDelta(t, 6000, state.Yes, 1e-6)
	assert.InDelta(t, 4000, state.No, 1e-6)
}

func TestReservesFromProbability_MatchesDisplayConvention(t *testing.T) {
	state := ReservesFromProbability(0.73, 10_000)

	// Seeded reserves reproduce the probability under same-side-over-total.
	assert.InDelta(t, 0.73, state.Yes/state.Total(), 1e-9)
}
