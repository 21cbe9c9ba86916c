// Package chain provides gRPC chain access with endpoint failover.
package chain

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	oracletypes "github.com/classic-terra/core/v3/x/oracle/types"
	"github.com/cosmos/cosmos-sdk/client/grpc/tmservice"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txservice "github.com/cosmos/cosmos-sdk/types/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/romansvet/oracle-feeder/pkg/metrics"
)

// Oracle defines the interface for oracle-specific queries.
type Oracle interface {
	Params(context.Context, *oracletypes.QueryParamsRequest, ...grpc.CallOption) (*oracletypes.QueryParamsResponse, error)
}

// Auth defines the interface for authentication queries.
type Auth interface {
	Account(context.Context, *authtypes.QueryAccountRequest, ...grpc.CallOption) (*authtypes.QueryAccountResponse, error)
}

// Tendermint defines the interface for node/block queries.
type Tendermint interface {
	GetLatestBlock(context.Context, *tmservice.GetLatestBlockRequest, ...grpc.CallOption) (*tmservice.GetLatestBlockResponse, error)
}

// TxService defines the interface for transaction broadcasting and queries.
type TxService interface {
	BroadcastTx(context.Context, *txservice.BroadcastTxRequest, ...grpc.CallOption) (*txservice.BroadcastTxResponse, error)
	GetTx(context.Context, *txservice.GetTxRequest, ...grpc.CallOption) (*txservice.GetTxResponse, error)
}

// OracleParams is the fresh per-tick snapshot of the chain's oracle module
// parameters the feeder depends on.
type OracleParams struct {
	VotePeriod uint64
	Whitelist  []string
}

// Client wraps gRPC connections and provides oracle, auth, tendermint, and tx
// service clients with failover across endpoints.
type Client struct {
	logger    zerolog.Logger
	endpoints []string
	current   int
	mu        sync.RWMutex

	// gRPC connections
	conns []*grpc.ClientConn

	// Service clients (created from current connection)
	oracleClient Oracle
	authClient   Auth
	tmClient     Tendermint
	txClient     TxService

	// Codec for unpacking Any types
	ir codectypes.InterfaceRegistry
}

// ClientConfig holds configuration for creating a new Client.
type ClientConfig struct {
	Endpoints         []EndpointConfig             // gRPC endpoints (with failover and per-endpoint TLS)
	ChainID           string                       // Chain ID (for context)
	InterfaceRegistry codectypes.InterfaceRegistry // For unpacking Any types
	Logger            zerolog.Logger               // Logger
}

// EndpointConfig represents a single gRPC endpoint with its TLS setting
type EndpointConfig struct {
	Address string
	TLS     bool
}

// NewClient creates a new gRPC client with failover support across multiple endpoints.
// It establishes connections to all endpoints and creates service clients from the first endpoint.
func NewClient(cfg ClientConfig) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpointsRequired
	}

	conns := make([]*grpc.ClientConn, len(cfg.Endpoints))
	endpoints := make([]string, len(cfg.Endpoints))

	for i, epCfg := range cfg.Endpoints {
		endpoints[i] = epCfg.Address

		var transportCreds grpc.DialOption
		if epCfg.TLS {
			transportCreds = grpc.WithTransportCredentials(
				credentials.NewTLS(&tls.Config{
					InsecureSkipVerify: false,
				}),
			)
		} else {
			transportCreds = grpc.WithTransportCredentials(insecure.NewCredentials())
		}

		conn, err := grpc.Dial(epCfg.Address, transportCreds)
		if err != nil {
			// Close any successful connections before returning
			for j := 0; j < i; j++ {
				conns[j].Close()
			}
			return nil, fmt.Errorf("failed to connect to %s: %w", epCfg.Address, err)
		}
		conns[i] = conn
		cfg.Logger.Info().Str("endpoint", epCfg.Address).Bool("tls", epCfg.TLS).Msg("Connected to gRPC endpoint")
	}

	c := &Client{
		logger:    cfg.Logger,
		endpoints: endpoints,
		current:   0,
		conns:     conns,
		ir:        cfg.InterfaceRegistry,
	}

	// Create service clients from first connection
	c.oracleClient = oracletypes.NewQueryClient(conns[0])
	c.authClient = authtypes.NewQueryClient(conns[0])
	c.tmClient = tmservice.NewServiceClient(conns[0])
	c.txClient = txservice.NewServiceClient(conns[0])

	return c, nil
}

// OracleClient returns the oracle query client.
func (c *Client) OracleClient() Oracle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.oracleClient
}

// AuthClient returns the auth query client.
func (c *Client) AuthClient() Auth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authClient
}

// TendermintClient returns the tendermint service client.
func (c *Client) TendermintClient() Tendermint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tmClient
}

// TxClient returns the transaction service client.
func (c *Client) TxClient() TxService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.txClient
}

// InterfaceRegistry returns the codec interface registry for unpacking Any types.
func (c *Client) InterfaceRegistry() codectypes.InterfaceRegistry {
	return c.ir
}

// Failover rotates to the next endpoint and recreates service clients.
// This is automatically called by WithFailover wrapper on RPC errors.
func (c *Client) Failover() {
	c.mu.Lock()
	defer c.mu.Unlock()

	oldIndex := c.current
	c.current = (c.current + 1) % len(c.endpoints)

	c.logger.Warn().
		Str("from", c.endpoints[oldIndex]).
		Str("to", c.endpoints[c.current]).
		Msg("Failing over to next gRPC endpoint")
	metrics.RecordGRPCFailover()

	// Recreate service clients from new connection
	c.oracleClient = oracletypes.NewQueryClient(c.conns[c.current])
	c.authClient = authtypes.NewQueryClient(c.conns[c.current])
	c.tmClient = tmservice.NewServiceClient(c.conns[c.current])
	c.txClient = txservice.NewServiceClient(c.conns[c.current])
}

// CurrentEndpoint returns the currently active endpoint.
func (c *Client) CurrentEndpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoints[c.current]
}

// Close closes all gRPC connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for i, conn := range c.conns {
		if err := conn.Close(); err != nil {
			c.logger.Error().Err(err).Str("endpoint", c.endpoints[i]).Msg("Failed to close gRPC connection")
			lastErr = err
		}
	}
	return lastErr
}

// WithFailover wraps an RPC call with automatic failover on error.
// It attempts the call on all endpoints before giving up.
func WithFailover[T any](c *Client, call func() (T, error)) (T, error) {
	return WithFailoverRetry(c, call, 0) // Default: try all endpoints once
}

// WithFailoverRetry wraps an RPC call with automatic failover and configurable retries.
//
// For transient errors (NotFound, connection issues) the call is retried on the
// same endpoint with exponential backoff; for persistent errors it rotates to
// the next endpoint. maxAttempts == 0 means one try per endpoint.
func WithFailoverRetry[T any](c *Client, call func() (T, error), maxAttempts int) (T, error) {
	var zero T

	// Default maxAttempts to number of endpoints (one try per endpoint, no retries)
	if maxAttempts == 0 {
		maxAttempts = len(c.endpoints)
	}

	currentEndpointAttempts := 0
	baseDelay := 500 * time.Millisecond

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := call()
		if err == nil {
			return resp, nil
		}

		// Transient errors are expected during tx confirmation polling
		isTransientError := strings.Contains(err.Error(), "tx not found") ||
			strings.Contains(err.Error(), "NotFound") ||
			strings.Contains(err.Error(), "not found") ||
			strings.Contains(err.Error(), "connection refused") ||
			strings.Contains(err.Error(), "timeout")

		isLastAttempt := attempt == maxAttempts-1

		logEvent := c.logger.Debug()
		if isLastAttempt && !isTransientError {
			logEvent = c.logger.Error()
		}

		logEvent.
			Err(err).
			Str("endpoint", c.CurrentEndpoint()).
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Bool("transient", isTransientError).
			Msg("RPC call failed")

		if isLastAttempt {
			break
		}

		currentEndpointAttempts++

		// Transient errors retry on the same endpoint with backoff; persistent
		// errors rotate to the next endpoint after a couple of attempts.
		shouldRotate := !isTransientError && currentEndpointAttempts >= 2

		if shouldRotate && len(c.endpoints) > 1 {
			c.Failover()
			currentEndpointAttempts = 0
			time.Sleep(baseDelay)
		} else {
			// Exponential backoff: 500ms, 1s, 2s, 4s, 8s (capped)
			delay := baseDelay * time.Duration(1<<min(currentEndpointAttempts, 4))
			time.Sleep(delay)
		}
	}

	return zero, fmt.Errorf("%w after %d attempts", ErrAllAttemptsFailed, maxAttempts)
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// GetAccount retrieves account information (account number and sequence) for the given address.
// Uses failover if the query fails on the current endpoint.
func (c *Client) GetAccount(ctx context.Context, address sdk.AccAddress) (uint64, uint64, error) {
	resp, err := WithFailover(c, func() (*authtypes.QueryAccountResponse, error) {
		return c.AuthClient().Account(ctx, &authtypes.QueryAccountRequest{
			Address: address.String(),
		})
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query account: %w", err)
	}

	var acc authtypes.AccountI
	if err := c.ir.UnpackAny(resp.Account, &acc); err != nil {
		return 0, 0, fmt.Errorf("failed to unpack account: %w", err)
	}

	return acc.GetAccountNumber(), acc.GetSequence(), nil
}

// GetOracleParams retrieves the oracle module parameters. The result is a
// fresh snapshot each call; callers must not cache it across ticks.
func (c *Client) GetOracleParams(ctx context.Context) (*OracleParams, error) {
	resp, err := WithFailover(c, func() (*oracletypes.QueryParamsResponse, error) {
		return c.OracleClient().Params(ctx, &oracletypes.QueryParamsRequest{})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query oracle params: %w", err)
	}

	if resp.Params.VotePeriod == 0 {
		return nil, ErrInvalidVotePeriod
	}

	whitelist := make([]string, len(resp.Params.Whitelist))
	for i, denom := range resp.Params.Whitelist {
		whitelist[i] = denom.Name
	}

	return &OracleParams{
		VotePeriod: resp.Params.VotePeriod,
		Whitelist:  whitelist,
	}, nil
}

// GetLatestHeight retrieves the current chain tip height.
func (c *Client) GetLatestHeight(ctx context.Context) (int64, error) {
	resp, err := WithFailover(c, func() (*tmservice.GetLatestBlockResponse, error) {
		return c.TendermintClient().GetLatestBlock(ctx, &tmservice.GetLatestBlockRequest{})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query latest block: %w", err)
	}

	if resp.SdkBlock != nil {
		return resp.SdkBlock.Header.Height, nil
	}
	if resp.Block != nil { //nolint:staticcheck // fallback for nodes without sdk_block
		return resp.Block.Header.Height, nil //nolint:staticcheck
	}
	return 0, ErrEmptyBlockResponse
}

// BroadcastTxAsync broadcasts a transaction using BROADCAST_MODE_ASYNC. The
// response carries no CheckTx result; inclusion must be confirmed separately.
func (c *Client) BroadcastTxAsync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	resp, err := WithFailover(c, func() (*txservice.BroadcastTxResponse, error) {
		return c.TxClient().BroadcastTx(ctx, &txservice.BroadcastTxRequest{
			TxBytes: txBytes,
			Mode:    txservice.BroadcastMode_BROADCAST_MODE_ASYNC,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast tx: %w", err)
	}

	return resp.TxResponse, nil
}

// GetTx retrieves a transaction by hash. A NotFound error is returned as-is so
// confirmation polling can distinguish it from transport failures; no retries
// happen here, the caller owns the polling cadence.
func (c *Client) GetTx(ctx context.Context, txHash string) (*sdk.TxResponse, error) {
	resp, err := c.TxClient().GetTx(ctx, &txservice.GetTxRequest{
		Hash: txHash,
	})
	if err != nil {
		return nil, err
	}

	return resp.TxResponse, nil
}
