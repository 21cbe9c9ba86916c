// Package config provides configuration loading and validation for the oracle feeder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file with environment variable expansion.
func Load(path string) (*Config, error) {
	// Validate and sanitize path
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in YAML
	expanded := os.ExpandEnv(string(data))

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	// Feeder defaults
	if cfg.Feeder.TickInterval.ToDuration() < 500*time.Millisecond {
		cfg.Feeder.TickInterval = Duration(500 * time.Millisecond)
	}
	if cfg.Feeder.HoldOffBlocks == 0 {
		cfg.Feeder.HoldOffBlocks = 2
	}
	if cfg.Feeder.ConfirmWindow == 0 {
		cfg.Feeder.ConfirmWindow = 2
	}
	if cfg.Feeder.SourceTimeout.ToDuration() == 0 {
		cfg.Feeder.SourceTimeout = Duration(10 * time.Second)
	}

	// HD path defaults for mnemonic keys
	if cfg.Feeder.HDPath == "" {
		coinType := cfg.Feeder.CoinType
		if coinType == 0 {
			coinType = 330
			cfg.Feeder.CoinType = 330
		}
		cfg.Feeder.HDPath = fmt.Sprintf("m/44'/%d'/0'/0/0", coinType)
	}

	// Metrics defaults
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// TrackedDenoms returns the lower-cased set of denoms the feeder reports real
// prices for. Whitelisted denoms outside this set are voted as abstain.
func (c *Config) TrackedDenoms() map[string]bool {
	requested := make(map[string]bool)
	for _, denom := range strings.Split(c.Feeder.Denoms, ",") {
		denom = strings.ToLower(strings.TrimSpace(denom))
		if denom != "" {
			requested[denom] = true
		}
	}
	return requested
}
