package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	oracletypes "github.com/classic-terra/core/v3/x/oracle/types"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/input"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	vestingtypes "github.com/cosmos/cosmos-sdk/x/auth/vesting/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	"github.com/romansvet/oracle-feeder/pkg/config"
	"github.com/romansvet/oracle-feeder/pkg/feeder/chain"
	"github.com/romansvet/oracle-feeder/pkg/feeder/keystore"
	"github.com/romansvet/oracle-feeder/pkg/feeder/pricefeed"
	feedertx "github.com/romansvet/oracle-feeder/pkg/feeder/tx"
	"github.com/romansvet/oracle-feeder/pkg/feeder/voter"
	"github.com/romansvet/oracle-feeder/pkg/logging"
	"github.com/romansvet/oracle-feeder/pkg/metrics"
	"github.com/romansvet/oracle-feeder/pkg/version"
)

var (
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
	showVer    = flag.Bool("version", false, "Show version and exit")
	dryRun     = flag.Bool("dry-run", false, "Dry run mode: build votes but don't submit them")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("oracle-feeder version %s\n", version.Version)
		os.Exit(0)
	}

	// Configure Cosmos SDK with Terra Classic prefixes
	// This must be done before any other SDK operations
	sdkConfig := sdk.GetConfig()
	sdkConfig.SetBech32PrefixForAccount("terra", "terrapub")
	sdkConfig.SetBech32PrefixForValidator("terravaloper", "terravaloperpub")
	sdkConfig.SetBech32PrefixForConsensusNode("terravalcons", "terravalconspub")
	sdkConfig.SetCoinType(330)
	sdkConfig.SetPurpose(44)
	sdkConfig.Seal()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		cfg.Feeder.DryRun = true
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting oracle-feeder", "version", version.Version, "chain_id", cfg.Feeder.ChainID)

	if cfg.Feeder.DryRun {
		logger.Warn("DRY RUN MODE ENABLED - Votes will be built but NOT submitted to the blockchain")
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- runFeeder(ctx, cfg, logger)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil && ctx.Err() == nil {
			logger.Error("Feeder failed", "error", err)
			cancel()
			os.Exit(1)
		}
	}

	logger.Info("Shutdown complete")
}

func runFeeder(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	kr, valAddr, feederAddr, err := loadKey(cfg)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}
	logger.Info("Loaded feeder account", "address", feederAddr.String())

	// Default to voting for the key's own validator
	validators := cfg.Feeder.Validators
	if len(validators) == 0 {
		validators = []string{valAddr.String()}
		logger.Info("No validators configured, using key's own", "validator", valAddr.String())
	}

	encCfg := makeEncodingConfig()

	endpoints := make([]chain.EndpointConfig, len(cfg.Feeder.GRPCEndpoints))
	for i, ep := range cfg.Feeder.GRPCEndpoints {
		endpoints[i] = chain.EndpointConfig{
			Address: ep.Address,
			TLS:     ep.TLS,
		}
	}

	chainClient, err := chain.NewClient(chain.ClientConfig{
		Endpoints:         endpoints,
		ChainID:           cfg.Feeder.ChainID,
		InterfaceRegistry: encCfg.InterfaceRegistry,
		Logger:            logger.ZerologLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to create chain client: %w", err)
	}
	defer chainClient.Close()

	gasPrice, err := sdk.ParseDecCoin(cfg.Feeder.GasPrice)
	if err != nil {
		return fmt.Errorf("invalid gas price %q: %w", cfg.Feeder.GasPrice, err)
	}

	broadcaster := feedertx.NewBroadcaster(feedertx.BroadcasterConfig{
		Chain:    chainClient,
		Keyring:  kr,
		TxConfig: encCfg.TxConfig,
		ChainID:  cfg.Feeder.ChainID,
		GasPrice: gasPrice,
		Logger:   logger.ZerologLogger(),
	})

	priceClient, err := pricefeed.NewClient(
		cfg.Feeder.PriceSources,
		cfg.Feeder.SourceTimeout.ToDuration(),
		0,
		logger.ZerologLogger(),
	)
	if err != nil {
		return fmt.Errorf("failed to create price client: %w", err)
	}

	v, err := voter.NewVoter(voter.Config{
		Validators:    validators,
		Feeder:        feederAddr.String(),
		Requested:     cfg.TrackedDenoms(),
		TickInterval:  cfg.Feeder.TickInterval.ToDuration(),
		HoldOffBlocks: cfg.Feeder.HoldOffBlocks,
		ConfirmWindow: cfg.Feeder.ConfirmWindow,
		DryRun:        cfg.Feeder.DryRun,
	}, chainClient, priceClient, broadcaster, logger.ZerologLogger())
	if err != nil {
		return fmt.Errorf("failed to create voter: %w", err)
	}

	logger.Info("Starting oracle voter", "validators", len(validators))

	return v.Run(ctx)
}

// loadKey loads the signing key from either an armored key file (passphrase
// from env or interactive prompt) or a mnemonic environment variable.
func loadKey(cfg *config.Config) (keyring.Keyring, sdk.ValAddress, sdk.AccAddress, error) {
	if cfg.Feeder.KeyFile != "" {
		passphrase := ""
		if cfg.Feeder.PassphraseEnv != "" {
			passphrase = os.Getenv(cfg.Feeder.PassphraseEnv)
		}
		if passphrase == "" {
			var err error
			passphrase, err = input.GetPassword("Enter key passphrase:", bufio.NewReader(os.Stdin))
			if err != nil {
				return nil, nil, nil, fmt.Errorf("failed to read passphrase: %w", err)
			}
		}
		return keystore.FromArmoredFile(cfg.Feeder.KeyFile, passphrase)
	}

	mnemonic := os.Getenv(cfg.Feeder.MnemonicEnv)
	if mnemonic == "" {
		return nil, nil, nil, fmt.Errorf("environment variable %s not set", cfg.Feeder.MnemonicEnv)
	}
	return keystore.FromMnemonic(mnemonic, cfg.Feeder.HDPath)
}

// makeEncodingConfig creates an encoding config for transaction encoding
func makeEncodingConfig() EncodingConfig {
	amino := codec.NewLegacyAmino()
	interfaceRegistry := codectypes.NewInterfaceRegistry()

	// Register all standard SDK modules
	std.RegisterLegacyAminoCodec(amino)
	std.RegisterInterfaces(interfaceRegistry)

	// Register auth module types (required for account queries)
	authtypes.RegisterLegacyAminoCodec(amino)
	authtypes.RegisterInterfaces(interfaceRegistry)

	// Register vesting types (Terra Classic uses vesting accounts)
	vestingtypes.RegisterInterfaces(interfaceRegistry)

	// Register bank types
	banktypes.RegisterInterfaces(interfaceRegistry)

	// Register oracle vote/prevote messages
	oracletypes.RegisterInterfaces(interfaceRegistry)

	// Register concrete account types explicitly
	interfaceRegistry.RegisterImplementations(
		(*authtypes.AccountI)(nil),
		&authtypes.BaseAccount{},
		&vestingtypes.PeriodicVestingAccount{},
		&vestingtypes.ContinuousVestingAccount{},
		&vestingtypes.DelayedVestingAccount{},
		&vestingtypes.PermanentLockedAccount{},
	)
	interfaceRegistry.RegisterImplementations(
		(*authtypes.GenesisAccount)(nil),
		&authtypes.BaseAccount{},
		&authtypes.ModuleAccount{},
	)

	marshaler := codec.NewProtoCodec(interfaceRegistry)
	txCfg := tx.NewTxConfig(marshaler, tx.DefaultSignModes)

	return EncodingConfig{
		InterfaceRegistry: interfaceRegistry,
		Codec:             marshaler,
		TxConfig:          txCfg,
		Amino:             amino,
	}
}

// EncodingConfig specifies the concrete encoding types to use for a given app.
type EncodingConfig struct {
	InterfaceRegistry codectypes.InterfaceRegistry
	Codec             codec.Codec
	TxConfig          client.TxConfig
	Amino             *codec.LegacyAmino
}
