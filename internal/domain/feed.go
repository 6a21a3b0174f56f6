package domain

import "context"

// OddsFeed is the upstream probability source, polled per market key. A
// failure for one key must not prevent polling the remaining keys.
type OddsFeed interface {
	FetchProbability(ctx context.Context, feedKey string) (FeedReading, error)
}
