// Package pricefeed fetches exchange rates from redundant price servers.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/romansvet/oracle-feeder/pkg/metrics"
	"github.com/romansvet/oracle-feeder/pkg/version"
)

// defaultMaxAge is how old a price server snapshot may be before it is
// considered stale and rejected.
const defaultMaxAge = 60 * time.Second

// PricePoint is a single raw exchange rate from a price server.
type PricePoint struct {
	Currency string          `json:"currency"`
	Price    decimal.Decimal `json:"price"`
}

// response is the price server payload: a creation timestamp and a price list.
type response struct {
	CreatedAt string       `json:"created_at"`
	Prices    []PricePoint `json:"prices"`
}

// Client races multiple redundant price servers and returns the first
// structurally valid, fresh response.
type Client struct {
	sources []string
	http    *http.Client
	maxAge  time.Duration
	logger  zerolog.Logger
}

// NewClient creates a price client over the given source URLs. Each fetch has
// the given timeout as a hard ceiling; responses older than maxAge are
// rejected as stale.
func NewClient(sources []string, timeout, maxAge time.Duration, logger zerolog.Logger) (*Client, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if maxAge == 0 {
		maxAge = defaultMaxAge
	}

	return &Client{
		sources: sources,
		http: &http.Client{
			Timeout: timeout,
		},
		maxAge: maxAge,
		logger: logger.With().Str("component", "pricefeed").Logger(),
	}, nil
}

// FetchPrices fans out to all sources concurrently and resolves on the first
// response that is structurally valid and fresh. Losing fetches are abandoned,
// not cancelled. Per-source failures are logged, never raised: if no source
// qualifies the result is empty and every denom abstains this period.
func (c *Client) FetchPrices(ctx context.Context) []PricePoint {
	type result struct {
		source string
		points []PricePoint
		err    error
	}

	// Buffered so abandoned fetches can deliver without a reader.
	results := make(chan result, len(c.sources))

	for _, source := range c.sources {
		go func(url string) {
			start := time.Now()
			points, err := c.fetchOne(ctx, url)
			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordSourceFetch(url, status, time.Since(start))
			results <- result{source: url, points: points, err: err}
		}(source)
	}

	for i := 0; i < len(c.sources); i++ {
		select {
		case res := <-results:
			if res.err != nil {
				c.logger.Warn().Err(res.err).Str("source", res.source).Msg("price source rejected")
				continue
			}
			c.logger.Info().
				Str("source", res.source).
				Int("prices", len(res.points)).
				Msg("price source selected")
			return res.points
		case <-ctx.Done():
			c.logger.Warn().Err(ctx.Err()).Msg("price fetch aborted")
			return nil
		}
	}

	c.logger.Warn().Int("sources", len(c.sources)).Msg("no price source qualified, abstaining on all denoms")
	return nil
}

// fetchOne retrieves and validates one source. A response qualifies when its
// creation timestamp parses, is younger than maxAge, and the price list is
// non-empty.
func (c *Client) fetchOne(ctx context.Context, url string) ([]PricePoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.AgentString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: %d: %s", ErrHTTPStatus, resp.StatusCode, string(body))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339, payload.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, payload.CreatedAt)
	}
	if age := time.Since(createdAt); age >= c.maxAge {
		return nil, fmt.Errorf("%w: created %s ago", ErrStaleResponse, age.Truncate(time.Second))
	}

	if len(payload.Prices) == 0 {
		return nil, ErrEmptyPriceList
	}

	return payload.Prices, nil
}
