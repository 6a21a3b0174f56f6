package domain

import "time"

// FreezeReason records why a mirrored market's display probability is pinned.
type FreezeReason string

const (
	FreezeReasonNone   FreezeReason = ""
	FreezeReasonSpike  FreezeReason = "spike"
	FreezeReasonManual FreezeReason = "manual"
)

// UnfreezeReason records how a frozen market was released.
type UnfreezeReason string

const (
	UnfreezeNone       UnfreezeReason = ""
	UnfreezeStabilized UnfreezeReason = "stabilized"
	UnfreezeTimeout    UnfreezeReason = "timeout"
	UnfreezeManual     UnfreezeReason = "manual"
)

// FeedReading is one raw probability observation from the upstream odds feed.
type FeedReading struct {
	ProbYes   float64
	Title     string
	VolumeUSD float64
	Timestamp time.Time
}

// MirrorSnapshot is the externally visible view of one mirrored market's
// smoothing state. Internal hysteresis counters are deliberately not exposed.
type MirrorSnapshot struct {
	FeedKey       string
	Title         string
	ProbYesRaw    float64
	ProbYesShown  float64
	LastStableYes float64
	Frozen        bool
	FreezeReason  FreezeReason
	FrozenAt      time.Time
	// UnfreezeReason records how the most recent freeze was released. It is
	// empty while frozen and for markets that have never been frozen.
	UnfreezeReason UnfreezeReason
	VolumeUSD      float64
	UpdatedAt      time.Time
}
