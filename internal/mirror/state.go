// Package mirror smooths a volatile upstream odds feed into stable display
// probabilities. Each mirrored market carries a small state machine: while
// UNFROZEN the display tracks the raw feed, and a raw reading that jumps more
// than the spike threshold away from the last stable value freezes the
// display until the feed either reverts or settles on a new plateau (or a
// fail-safe timeout fires).
package mirror

import (
	"math"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

const (
	// DefaultSpikeThreshold is the raw-vs-stable jump (in probability points)
	// that triggers a freeze.
	DefaultSpikeThreshold = 0.05

	// DefaultStabilizeNeed is how many consecutive confirming readings
	// release a freeze.
	DefaultStabilizeNeed = 2

	// DefaultFailsafe bounds how long a market can stay frozen, so an
	// endlessly oscillating feed cannot pin the display forever.
	DefaultFailsafe = 120 * time.Second
)

// Config carries the stabilization tuning knobs.
type Config struct {
	SpikeThreshold float64
	StabilizeNeed  int
	Failsafe       time.Duration
}

// DefaultConfig returns the standard stabilization configuration.
func DefaultConfig() Config {
	return Config{
		SpikeThreshold: DefaultSpikeThreshold,
		StabilizeNeed:  DefaultStabilizeNeed,
		Failsafe:       DefaultFailsafe,
	}
}

func (c Config) withDefaults() Config {
	if c.SpikeThreshold <= 0 {
		c.SpikeThreshold = DefaultSpikeThreshold
	}
	if c.StabilizeNeed <= 0 {
		c.StabilizeNeed = DefaultStabilizeNeed
	}
	if c.Failsafe <= 0 {
		c.Failsafe = DefaultFailsafe
	}
	return c
}

// state is one mirrored market's smoothing state. It is owned by the Tracker
// and must only be touched under the Tracker's lock.
type state struct {
	feedKey   string
	title     string
	volumeUSD float64

	rawYes        float64
	displayYes    float64
	lastStableYes float64

	frozen         bool
	freezeReason   domain.FreezeReason
	frozenAt       time.Time
	unfreezeReason domain.UnfreezeReason

	// Hysteresis internals.
	stableCount      int
	prevRaw          float64
	plateauSeeded    bool
	plateauAnchor    float64
	plateauConfirmed bool

	updatedAt time.Time
}

func newState(feedKey string, r domain.FeedReading) *state {
	return &state{
		feedKey:       feedKey,
		title:         r.Title,
		volumeUSD:     r.VolumeUSD,
		rawYes:        r.ProbYes,
		displayYes:    r.ProbYes,
		lastStableYes: r.ProbYes,
		prevRaw:       r.ProbYes,
		updatedAt:     r.Timestamp,
	}
}

// tick advances the state machine with one feed reading.
func (s *state) tick(r domain.FeedReading, cfg Config) {
	if r.Title != "" {
		s.title = r.Title
	}
	if r.VolumeUSD > 0 {
		s.volumeUSD = r.VolumeUSD
	}
	s.updatedAt = r.Timestamp

	if s.frozen {
		s.tickFrozen(r, cfg)
		return
	}
	s.tickUnfrozen(r, cfg)
}

// tickUnfrozen tracks the raw feed, freezing on a spike away from the last
// stable value.
func (s *state) tickUnfrozen(r domain.FeedReading, cfg Config) {
	p := r.ProbYes
	if math.Abs(p-s.lastStableYes) < cfg.SpikeThreshold {
		s.rawYes = p
		s.displayYes = p
		s.lastStableYes = p
		s.prevRaw = p
		return
	}

	// Spike: pin the display at the pre-spike value and start watching for
	// either a reversion or a new plateau.
	s.frozen = true
	s.freezeReason = domain.FreezeReasonSpike
	s.frozenAt = r.Timestamp
	s.unfreezeReason = domain.UnfreezeNone
	s.rawYes = p
	s.displayYes = s.lastStableYes
	s.prevRaw = p
	s.stableCount = 0
	s.clearPlateau()
}

// tickFrozen evaluates the dual-path stability test: a reading confirms
// stability either by reverting toward the pre-spike anchor (close to both
// the previous raw reading and lastStableYes) or by holding a new plateau
// (close to the previous raw reading and to the plateau anchor, which the
// first far-from-anchor reading seeds). Any reading that breaks from the
// previous raw reading resets the counter.
func (s *state) tickFrozen(r domain.FeedReading, cfg Config) {
	p := r.ProbYes
	nearPrev := math.Abs(p-s.prevRaw) < cfg.SpikeThreshold
	nearAnchor := math.Abs(p-s.lastStableYes) < cfg.SpikeThreshold

	switch {
	case nearPrev && nearAnchor:
		// Path A: reverting toward the pre-spike value.
		s.stableCount++

	case nearPrev && !nearAnchor:
		// Path B: holding a level away from the anchor.
		switch {
		case !s.plateauSeeded:
			s.plateauSeeded = true
			s.plateauAnchor = p
			s.stableCount++
		case math.Abs(p-s.plateauAnchor) < cfg.SpikeThreshold:
			s.plateauConfirmed = true
			s.stableCount++
		default:
			// Near the previous reading but drifted off the candidate
			// plateau: re-seed on the new level.
			s.plateauAnchor = p
			s.plateauConfirmed = false
			s.stableCount = 1
		}

	default:
		s.stableCount = 0
		if s.plateauSeeded && math.Abs(p-s.plateauAnchor) >= cfg.SpikeThreshold {
			s.clearPlateau()
		}
	}

	s.prevRaw = p
	s.rawYes = p
	s.displayYes = s.lastStableYes

	if s.stableCount >= cfg.StabilizeNeed {
		s.unfreeze(p, r.Timestamp, domain.UnfreezeStabilized)
		return
	}
	if !s.frozenAt.IsZero() && r.Timestamp.Sub(s.frozenAt) >= cfg.Failsafe {
		// Fail-safe: accept whatever the feed currently says.
		s.unfreeze(p, r.Timestamp, domain.UnfreezeTimeout)
	}
}

// unfreeze re-baselines on the current raw value: the market has accepted
// the move, whether it was a reversion, a plateau, or a timeout.
func (s *state) unfreeze(p float64, ts time.Time, reason domain.UnfreezeReason) {
	s.frozen = false
	s.freezeReason = domain.FreezeReasonNone
	s.frozenAt = time.Time{}
	s.unfreezeReason = reason
	s.stableCount = 0
	s.clearPlateau()
	s.rawYes = p
	s.displayYes = p
	s.lastStableYes = p
	s.prevRaw = p
	s.updatedAt = ts
}

func (s *state) clearPlateau() {
	s.plateauSeeded = false
	s.plateauAnchor = 0
	s.plateauConfirmed = false
}

// forceFreeze pins the display at the last stable value on operator request.
func (s *state) forceFreeze(ts time.Time) {
	s.frozen = true
	s.freezeReason = domain.FreezeReasonManual
	s.frozenAt = ts
	s.unfreezeReason = domain.UnfreezeNone
	s.displayYes = s.lastStableYes
	s.stableCount = 0
	s.clearPlateau()
	s.prevRaw = s.rawYes
	s.updatedAt = ts
}

// forceUnfreeze snaps the display to the current raw value immediately.
func (s *state) forceUnfreeze(ts time.Time) {
	s.unfreeze(s.rawYes, ts, domain.UnfreezeManual)
}

func (s *state) snapshot() domain.MirrorSnapshot {
	return domain.MirrorSnapshot{
		FeedKey:        s.feedKey,
		Title:          s.title,
		ProbYesRaw:     s.rawYes,
		ProbYesShown:   s.displayYes,
		LastStableYes:  s.lastStableYes,
		Frozen:         s.frozen,
		FreezeReason:   s.freezeReason,
		FrozenAt:       s.frozenAt,
		UnfreezeReason: s.unfreezeReason,
		VolumeUSD:      s.volumeUSD,
		UpdatedAt:      s.updatedAt,
	}
}
