package mirror

import (
	"fmt"
	"sync"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// Tracker owns the per-feed-key smoothing states. It is the only entry point
// to the state machines, so all transitions happen under its lock; updates
// are infrequent (one per poll tick per market) and cheap, which keeps a
// single mutex sufficient.
//
// State is process-lifetime and in-memory only: on restart every mirrored
// market re-initializes from its first reading, unfrozen.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*state
	cfg    Config
}

// NewTracker creates a Tracker. Zero-value config fields fall back to
// defaults.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		states: make(map[string]*state),
		cfg:    cfg.withDefaults(),
	}
}

// Upsert feeds one raw reading into the state machine for feedKey, creating
// the state on first observation. The reading's probability must already be
// validated to [0,1] by the producer. A zero timestamp is stamped with the
// current time so the fail-safe clock always advances.
func (t *Tracker) Upsert(feedKey string, r domain.FeedReading) (domain.MirrorSnapshot, error) {
	if feedKey == "" {
		return domain.MirrorSnapshot{}, fmt.Errorf("mirror: empty feed key: %w", domain.ErrInvalidInput)
	}
	if r.ProbYes < 0 || r.ProbYes > 1 {
		return domain.MirrorSnapshot{}, fmt.Errorf("mirror: probability %g outside [0,1]: %w", r.ProbYes, domain.ErrInvalidInput)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[feedKey]
	if !ok {
		s = newState(feedKey, r)
		t.states[feedKey] = s
		return s.snapshot(), nil
	}

	s.tick(r, t.cfg)
	return s.snapshot(), nil
}

// Snapshot returns the current view of one mirrored market.
func (t *Tracker) Snapshot(feedKey string) (domain.MirrorSnapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.states[feedKey]
	if !ok {
		return domain.MirrorSnapshot{}, domain.ErrNotFound
	}
	return s.snapshot(), nil
}

// SnapshotAll returns the current view of every mirrored market.
func (t *Tracker) SnapshotAll() []domain.MirrorSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.MirrorSnapshot, 0, len(t.states))
	for _, s := range t.states {
		out = append(out, s.snapshot())
	}
	return out
}

// DisplayProb returns the stabilized probability for feedKey, the value
// downstream consumers (including the reserve bootstrapper) should use.
func (t *Tracker) DisplayProb(feedKey string) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.states[feedKey]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return s.displayYes, nil
}

// ForceFreeze pins the display at the last stable value outside the normal
// tick cycle (operator override).
func (t *Tracker) ForceFreeze(feedKey string) (domain.MirrorSnapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[feedKey]
	if !ok {
		return domain.MirrorSnapshot{}, domain.ErrNotFound
	}
	s.forceFreeze(time.Now().UTC())
	return s.snapshot(), nil
}

// ForceUnfreeze snaps the display to the current raw value immediately.
func (t *Tracker) ForceUnfreeze(feedKey string) (domain.MirrorSnapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[feedKey]
	if !ok {
		return domain.MirrorSnapshot{}, domain.ErrNotFound
	}
	s.forceUnfreeze(time.Now().UTC())
	return s.snapshot(), nil
}
