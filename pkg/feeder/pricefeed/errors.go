// Package pricefeed fetches exchange rates from redundant price servers.
package pricefeed

import "errors"

var (
	// ErrNoSources indicates that at least one price source URL is required.
	ErrNoSources = errors.New("at least one price source is required")
	// ErrHTTPStatus indicates that a price server returned a non-200 status.
	ErrHTTPStatus = errors.New("price server returned HTTP error")
	// ErrInvalidTimestamp indicates that the response timestamp did not parse.
	ErrInvalidTimestamp = errors.New("invalid created_at timestamp")
	// ErrStaleResponse indicates that the response is older than the freshness window.
	ErrStaleResponse = errors.New("stale price response")
	// ErrEmptyPriceList indicates that the response carried no prices.
	ErrEmptyPriceList = errors.New("empty price list")
)
