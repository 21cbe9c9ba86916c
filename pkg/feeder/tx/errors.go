// Package tx builds, signs, broadcasts, and confirms oracle vote transactions.
package tx

import "errors"

var (
	// ErrTransactionRejected indicates that the transaction was rejected at broadcast.
	ErrTransactionRejected = errors.New("transaction rejected")
	// ErrNotConfirmed indicates that the transaction was not found within the
	// confirmation block window. Non-fatal: the caller treats the tick as
	// skipped and lets the next tick's period-gap check handle recovery.
	ErrNotConfirmed = errors.New("transaction not confirmed within block window")
)
