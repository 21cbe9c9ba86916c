package chain

import "errors"

var (
	// ErrNoEndpointsRequired indicates that at least one gRPC endpoint is required.
	ErrNoEndpointsRequired = errors.New("at least one gRPC endpoint is required")
	// ErrAllAttemptsFailed indicates that all attempts failed across gRPC endpoints.
	ErrAllAttemptsFailed = errors.New("all attempts failed across gRPC endpoints")
	// ErrInvalidVotePeriod indicates that the chain reported a zero vote period.
	ErrInvalidVotePeriod = errors.New("oracle vote period must be positive")
	// ErrEmptyBlockResponse indicates that the latest block query returned no block.
	ErrEmptyBlockResponse = errors.New("latest block response contained no block")
)
