// Package oracle builds and filters commit-reveal oracle vote messages.
package oracle

import "errors"

var (
	// ErrNoRates indicates that the exchange rates string is empty.
	ErrNoRates = errors.New("exchange rates cannot be empty")
	// ErrNoValidators indicates that no validator addresses were provided.
	ErrNoValidators = errors.New("at least one validator is required")
)
