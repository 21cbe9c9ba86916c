package config

import "time"

// Config is the root configuration structure
type Config struct {
	Feeder  FeederConfig  `yaml:"feeder"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// FeederConfig configures the vote loop and chain access
type FeederConfig struct {
	ChainID       string           `yaml:"chain_id"`       // Chain ID (e.g., "columbus-5")
	GRPCEndpoints []EndpointConfig `yaml:"grpc_endpoints"` // gRPC endpoints for failover
	Validators    []string         `yaml:"validators"`     // Validator addresses to vote for (default: key's own)
	KeyFile       string           `yaml:"key_file"`       // Path to armored signing key file
	PassphraseEnv string           `yaml:"passphrase_env"` // Environment variable holding the key passphrase
	MnemonicEnv   string           `yaml:"mnemonic_env"`   // Environment variable holding a BIP39 mnemonic (alternative to key_file)
	HDPath        string           `yaml:"hd_path"`        // HD derivation path for mnemonic keys
	CoinType      uint32           `yaml:"coin_type"`      // BIP44 coin type (default: 330)
	GasPrice      string           `yaml:"gas_price"`      // Gas price spec (e.g., "28.325uluna")
	PriceSources  []string         `yaml:"price_sources"`  // Redundant price server URLs
	Denoms        string           `yaml:"denoms"`         // Comma-separated tracked denoms (e.g., "usd,krw,sdr")
	TickInterval  Duration         `yaml:"tick_interval"`  // Minimum time between tick starts
	HoldOffBlocks uint64           `yaml:"holdoff_blocks"` // Blocks to keep clear of the period boundary
	ConfirmWindow int64            `yaml:"confirm_window"` // Blocks past the target to poll for inclusion
	SourceTimeout Duration         `yaml:"source_timeout"` // Per-source fetch ceiling
	DryRun        bool             `yaml:"dry_run"`        // Build votes but do not broadcast
}

// EndpointConfig represents a single gRPC endpoint with its TLS setting
type EndpointConfig struct {
	Address string `yaml:"address"`
	TLS     bool   `yaml:"tls"`
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
