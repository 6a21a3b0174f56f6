package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "active"
	MarketStatusResolved MarketStatus = "resolved"
)

// Market is one binary (Yes/No) market priced by the AMM. FeedKey links the
// market to its upstream odds feed subscription; markets without a FeedKey
// are self-contained and never re-bootstrapped from the feed.
type Market struct {
	ID         string
	Question   string
	Slug       string
	FeedKey    string
	Status     MarketStatus
	Winner     Outcome // only meaningful when Status is resolved
	ResolvedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReserveSnapshot is one historical reserve observation, kept for charting.
type ReserveSnapshot struct {
	MarketID  string
	Yes       float64
	No        float64
	K         float64
	ProbYes   float64
	Timestamp time.Time
}
