// Package polymarket implements the upstream odds feed against the
// Polymarket Gamma API.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// FeedClient is the REST client that fetches raw outcome probabilities for
// mirrored markets. It implements domain.OddsFeed.
type FeedClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFeedClient creates a feed client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewFeedClient(baseURL string) *FeedClient {
	return &FeedClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiMarket is the subset of the Gamma market payload the feed needs.
// Numeric fields arrive as JSON strings.
type apiMarket struct {
	Question      string `json:"question"`
	OutcomePrices string `json:"outcomePrices"` // JSON-encoded array, e.g. `["0.62","0.38"]`
	Volume        string `json:"volume"`
	Closed        bool   `json:"closed"`
}

// FetchProbability returns the latest YES probability for one market slug.
func (c *FeedClient) FetchProbability(ctx context.Context, feedKey string) (domain.FeedReading, error) {
	params := url.Values{}
	params.Set("slug", feedKey)

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return domain.FeedReading{}, fmt.Errorf("polymarket/feed: fetch %s: %w", feedKey, err)
	}

	var markets []apiMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return domain.FeedReading{}, fmt.Errorf("polymarket/feed: decode %s: %w", feedKey, err)
	}
	if len(markets) == 0 {
		return domain.FeedReading{}, fmt.Errorf("polymarket/feed: %s: %w", feedKey, domain.ErrNotFound)
	}

	m := markets[0]
	probYes, err := parseYesPrice(m.OutcomePrices)
	if err != nil {
		return domain.FeedReading{}, fmt.Errorf("polymarket/feed: %s: %w", feedKey, err)
	}

	volume, _ := strconv.ParseFloat(m.Volume, 64)

	return domain.FeedReading{
		ProbYes:   probYes,
		Title:     m.Question,
		VolumeUSD: volume,
		Timestamp: time.Now().UTC(),
	}, nil
}

// parseYesPrice extracts the first (Yes) entry from the outcomePrices field,
// which is itself a JSON-encoded string array, and validates its range.
func parseYesPrice(raw string) (float64, error) {
	var prices []string
	if err := json.Unmarshal([]byte(raw), &prices); err != nil {
		return 0, fmt.Errorf("parse outcome prices %q: %w", raw, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("empty outcome prices: %w", domain.ErrInvalidInput)
	}
	p, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse yes price %q: %w", prices[0], err)
	}
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("yes price %g outside [0,1]: %w", p, domain.ErrInvalidInput)
	}
	return p, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (c *FeedClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Compile-time interface check.
var _ domain.OddsFeed = (*FeedClient)(nil)
