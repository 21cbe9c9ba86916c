package config

import (
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if err := validateFeederConfig(&cfg.Feeder); err != nil {
		return fmt.Errorf("feeder config: %w", err)
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateFeederConfig(cfg *FeederConfig) error {
	if cfg.ChainID == "" {
		return ErrChainIDRequired
	}

	if len(cfg.GRPCEndpoints) == 0 {
		return ErrNoGRPCEndpoints
	}
	for i, ep := range cfg.GRPCEndpoints {
		if ep.Address == "" {
			return fmt.Errorf("%w: endpoint %d", ErrGRPCAddressRequired, i)
		}
	}

	// Validators are optional; the key's own validator address is the default.
	for i, val := range cfg.Validators {
		if !strings.Contains(val, "valoper") {
			return fmt.Errorf("%w: validator[%d] %s", ErrInvalidValidator, i, val)
		}
	}

	if cfg.KeyFile == "" && cfg.MnemonicEnv == "" {
		return ErrKeyRequired
	}

	if cfg.GasPrice == "" {
		return ErrGasPriceRequired
	}
	if _, err := sdk.ParseDecCoin(cfg.GasPrice); err != nil {
		return fmt.Errorf("invalid gas_price %q: %w", cfg.GasPrice, err)
	}

	if len(cfg.PriceSources) == 0 {
		return ErrNoPriceSources
	}

	if strings.TrimSpace(cfg.Denoms) == "" {
		return ErrNoDenoms
	}

	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, l := range validLevels {
		if strings.ToLower(cfg.Level) == l {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	formatValid := strings.ToLower(cfg.Format) == "json" || strings.ToLower(cfg.Format) == "text"
	if !formatValid {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}
