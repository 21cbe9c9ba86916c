// Package tx builds, signs, broadcasts, and confirms oracle vote transactions.
package tx

import (
	"context"
	"fmt"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	sdkclient "github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/tx"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/romansvet/oracle-feeder/pkg/metrics"
)

const (
	// blockPollInterval is how often the confirmer re-checks the tip height.
	blockPollInterval = 1 * time.Second
	// maxPollAttempts bounds the confirmation loop even if the tip stalls.
	maxPollAttempts = 120
)

// Chain is the chain access the broadcaster needs: account info, async
// broadcast, tx-by-hash lookup, and the tip height for confirmation polling.
type Chain interface {
	GetAccount(ctx context.Context, address sdk.AccAddress) (uint64, uint64, error)
	BroadcastTxAsync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error)
	GetTx(ctx context.Context, txHash string) (*sdk.TxResponse, error)
	GetLatestHeight(ctx context.Context) (int64, error)
}

// Broadcaster handles transaction construction, signing, broadcasting, and
// inclusion confirmation.
type Broadcaster struct {
	chain    Chain
	keyring  keyring.Keyring
	txConfig sdkclient.TxConfig
	chainID  string
	gasPrice sdk.DecCoin
	logger   zerolog.Logger
}

// BroadcasterConfig holds configuration for creating a Broadcaster.
type BroadcasterConfig struct {
	Chain    Chain
	Keyring  keyring.Keyring
	TxConfig sdkclient.TxConfig
	ChainID  string
	GasPrice sdk.DecCoin
	Logger   zerolog.Logger
}

// NewBroadcaster creates a new transaction broadcaster.
func NewBroadcaster(cfg BroadcasterConfig) *Broadcaster {
	return &Broadcaster{
		chain:    cfg.Chain,
		keyring:  cfg.Keyring,
		txConfig: cfg.TxConfig,
		chainID:  cfg.ChainID,
		gasPrice: cfg.GasPrice,
		logger:   cfg.Logger,
	}
}

// SubmitRequest holds parameters for submitting a vote transaction.
type SubmitRequest struct {
	Msgs          []sdk.Msg      // Reveal + prevote messages for this tick
	Feeder        sdk.AccAddress // Feeder account (signs the transaction)
	NextHeight    int64          // Height the tick targeted for inclusion
	ConfirmWindow int64          // Blocks past NextHeight to keep polling
	Memo          string         // Transaction memo (optional)
}

// SubmitAndConfirm signs and broadcasts the transaction asynchronously, then
// polls subsequent blocks for inclusion. Mempool acceptance alone is not
// success: only a found transaction with code 0 confirms. Returns the height
// the transaction was included at, or ErrNotConfirmed when the block window is
// exhausted.
func (b *Broadcaster) SubmitAndConfirm(ctx context.Context, req SubmitRequest) (int64, error) {
	txBytes, err := b.buildAndSign(ctx, req)
	if err != nil {
		metrics.RecordVoteSubmission("sign_error")
		return 0, err
	}

	start := time.Now()
	resp, err := b.chain.BroadcastTxAsync(ctx, txBytes)
	if err != nil {
		metrics.RecordVoteSubmission("broadcast_error")
		return 0, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if resp.Code != abcitypes.CodeTypeOK {
		metrics.RecordVoteSubmission("rejected")
		return 0, fmt.Errorf("%w: code=%d, log=%s", ErrTransactionRejected, resp.Code, resp.RawLog)
	}

	b.logger.Info().
		Str("tx_hash", resp.TxHash).
		Int("num_msgs", len(req.Msgs)).
		Int64("next_height", req.NextHeight).
		Msg("Vote transaction broadcast")

	height, err := b.waitForInclusion(ctx, resp.TxHash, req.NextHeight, req.ConfirmWindow)
	if err != nil {
		metrics.RecordVoteSubmission("not_confirmed")
		return 0, err
	}

	metrics.RecordVoteSubmission("confirmed")
	metrics.RecordConfirmation(height, time.Since(start))

	b.logger.Info().
		Str("tx_hash", resp.TxHash).
		Int64("height", height).
		Msg("Vote transaction confirmed")

	return height, nil
}

// buildAndSign constructs and signs the transaction, fetching the account
// number and sequence from the chain.
func (b *Broadcaster) buildAndSign(ctx context.Context, req SubmitRequest) ([]byte, error) {
	accNum, sequence, err := b.chain.GetAccount(ctx, req.Feeder)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	keyInfo, err := b.keyring.KeyByAddress(req.Feeder)
	if err != nil {
		return nil, fmt.Errorf("failed to get key from keyring: %w", err)
	}

	gasLimit := EstimateGas(len(req.Msgs))
	fee := CalculateFee(gasLimit, b.gasPrice)

	b.logger.Debug().
		Str("feeder", req.Feeder.String()).
		Uint64("account_number", accNum).
		Uint64("sequence", sequence).
		Uint64("gas_limit", gasLimit).
		Str("fee", fee.String()).
		Int("num_msgs", len(req.Msgs)).
		Msg("Building transaction")

	txBuilder := b.txConfig.NewTxBuilder()
	if err := txBuilder.SetMsgs(req.Msgs...); err != nil {
		return nil, fmt.Errorf("failed to set messages: %w", err)
	}
	txBuilder.SetFeeAmount(fee)
	txBuilder.SetGasLimit(gasLimit)
	if req.Memo != "" {
		txBuilder.SetMemo(req.Memo)
	}

	txFactory := tx.Factory{}.
		WithChainID(b.chainID).
		WithKeybase(b.keyring).
		WithTxConfig(b.txConfig).
		WithAccountNumber(accNum).
		WithSequence(sequence)

	if err := tx.Sign(txFactory, keyInfo.Name, txBuilder, true); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	txBytes, err := b.txConfig.TxEncoder()(txBuilder.GetTx())
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	return txBytes, nil
}

// waitForInclusion polls for the transaction once per new block, starting at
// nextHeight-1 and giving up once the tip is more than window blocks past
// nextHeight. A found transaction with a non-zero code keeps polling; NotFound
// and transport errors are retried on the next block.
func (b *Broadcaster) waitForInclusion(ctx context.Context, txHash string, nextHeight, window int64) (int64, error) {
	checked := nextHeight - 1

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		height, err := b.chain.GetLatestHeight(ctx)
		if err != nil {
			b.logger.Warn().Err(err).Msg("height query failed during confirmation")
			sleepCtx(ctx, blockPollInterval)
			continue
		}

		if height <= checked {
			sleepCtx(ctx, blockPollInterval)
			continue
		}
		checked = height

		resp, err := b.chain.GetTx(ctx, txHash)
		switch {
		case err != nil && status.Code(err) == codes.NotFound:
			b.logger.Debug().
				Str("tx_hash", txHash).
				Int64("height", height).
				Msg("transaction not yet found")
		case err != nil:
			b.logger.Warn().Err(err).Str("tx_hash", txHash).Msg("tx query failed during confirmation")
		case resp.Code == abcitypes.CodeTypeOK:
			return resp.Height, nil
		default:
			b.logger.Warn().
				Str("tx_hash", txHash).
				Uint32("code", resp.Code).
				Str("raw_log", resp.RawLog).
				Msg("transaction found with non-zero code")
		}

		if checked > nextHeight+window {
			return 0, fmt.Errorf("%w: %s not found by height %d", ErrNotConfirmed, txHash, checked)
		}
	}

	return 0, fmt.Errorf("%w: %s polling exhausted", ErrNotConfirmed, txHash)
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// EstimateGas estimates the gas needed for a transaction. Oracle messages are
// uniform, so the estimate is linear in message count.
func EstimateGas(numMsgs int) uint64 {
	const baseGas uint64 = 50000
	const gasPerMsg uint64 = 50000

	return baseGas + (uint64(numMsgs) * gasPerMsg)
}

// CalculateFee calculates the fee for a transaction given gas limit and gas
// price: ceil(gasLimit * gasPrice). Without a usable gas price the fee falls
// back to a flat per-gas-unit uluna amount.
func CalculateFee(gasLimit uint64, gasPrice sdk.DecCoin) sdk.Coins {
	if gasPrice.Amount.IsNil() || gasPrice.Amount.IsZero() {
		const defaultFeePerGas = 30 // uluna, above the chain minimum
		return sdk.NewCoins(sdk.NewInt64Coin("uluna", int64(gasLimit)*defaultFeePerGas))
	}

	feeAmount := gasPrice.Amount.MulInt64(int64(gasLimit)).Ceil().TruncateInt()
	return sdk.NewCoins(sdk.NewCoin(gasPrice.Denom, feeAmount))
}
