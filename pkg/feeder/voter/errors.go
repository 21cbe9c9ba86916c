package voter

import "errors"

var (
	// ErrRevealMiss indicates that the pending commitment can no longer be
	// revealed in time; the caller resets all vote state.
	ErrRevealMiss = errors.New("missed reveal window")
	// ErrNoValidators indicates that no validator addresses were configured.
	ErrNoValidators = errors.New("at least one validator is required")
)
