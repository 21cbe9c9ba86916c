package config

import "errors"

var (
	// ErrChainIDRequired indicates that chain_id must be specified.
	ErrChainIDRequired = errors.New("chain_id must be specified")
	// ErrNoGRPCEndpoints indicates that at least one grpc endpoint must be specified.
	ErrNoGRPCEndpoints = errors.New("at least one grpc endpoint must be specified")
	// ErrGRPCAddressRequired indicates that a grpc endpoint address must be specified.
	ErrGRPCAddressRequired = errors.New("grpc endpoint address must be specified")
	// ErrInvalidValidator indicates that a validator address has the wrong prefix.
	ErrInvalidValidator = errors.New("validator must be a valoper address")
	// ErrKeyRequired indicates that either key_file or mnemonic_env must be specified.
	ErrKeyRequired = errors.New("either key_file or mnemonic_env must be specified")
	// ErrGasPriceRequired indicates that gas_price must be specified.
	ErrGasPriceRequired = errors.New("gas_price must be specified")
	// ErrNoPriceSources indicates that at least one price source URL must be specified.
	ErrNoPriceSources = errors.New("at least one price source must be specified")
	// ErrNoDenoms indicates that tracked denoms must be specified.
	ErrNoDenoms = errors.New("denoms must be specified")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)
