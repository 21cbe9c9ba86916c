package voter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/romansvet/oracle-feeder/pkg/feeder/chain"
	"github.com/romansvet/oracle-feeder/pkg/feeder/oracle"
	"github.com/romansvet/oracle-feeder/pkg/feeder/pricefeed"
	"github.com/romansvet/oracle-feeder/pkg/feeder/tx"
	"github.com/romansvet/oracle-feeder/pkg/metrics"
)

// ChainReader is the per-tick chain state the vote loop reads. Params and
// height are fetched fresh every tick, never cached.
type ChainReader interface {
	GetOracleParams(ctx context.Context) (*chain.OracleParams, error)
	GetLatestHeight(ctx context.Context) (int64, error)
}

// PriceSource races the configured price servers; an empty result means every
// denom abstains this tick.
type PriceSource interface {
	FetchPrices(ctx context.Context) []pricefeed.PricePoint
}

// Submitter broadcasts one vote transaction and confirms its inclusion.
type Submitter interface {
	SubmitAndConfirm(ctx context.Context, req tx.SubmitRequest) (int64, error)
}

// State is the vote loop's only mutable state, threaded explicitly through
// each tick. The zero value is the uninitialized state a fresh commit-only
// cycle starts from.
type State struct {
	PreviousVotePeriod uint64
	Pending            *oracle.PendingVote
}

// Voter drives the commit-reveal pipeline once per tick.
type Voter struct {
	chain     ChainReader
	prices    PriceSource
	submitter Submitter

	validators []sdk.ValAddress
	feeder     sdk.AccAddress
	requested  map[string]bool // lower-cased tracked currencies

	interval      time.Duration
	holdOff       uint64
	confirmWindow int64
	dryRun        bool

	logger zerolog.Logger
}

// Config contains voter configuration.
type Config struct {
	Validators    []string // Validator addresses (bech32 encoded)
	Feeder        string   // Feeder account address (bech32 encoded)
	Requested     map[string]bool
	TickInterval  time.Duration
	HoldOffBlocks uint64
	ConfirmWindow int64
	DryRun        bool
}

// NewVoter creates a new voter instance.
func NewVoter(
	cfg Config,
	chainReader ChainReader,
	prices PriceSource,
	submitter Submitter,
	logger zerolog.Logger,
) (*Voter, error) {
	feeder, err := sdk.AccAddressFromBech32(cfg.Feeder)
	if err != nil {
		return nil, fmt.Errorf("invalid feeder address: %w", err)
	}

	if len(cfg.Validators) == 0 {
		return nil, ErrNoValidators
	}
	validators := make([]sdk.ValAddress, len(cfg.Validators))
	for i, valStr := range cfg.Validators {
		val, err := sdk.ValAddressFromBech32(valStr)
		if err != nil {
			return nil, fmt.Errorf("invalid validator address %s: %w", valStr, err)
		}
		validators[i] = val
	}

	interval := cfg.TickInterval
	if interval < 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	holdOff := cfg.HoldOffBlocks
	if holdOff == 0 {
		holdOff = 2
	}
	confirmWindow := cfg.ConfirmWindow
	if confirmWindow == 0 {
		confirmWindow = 2
	}

	return &Voter{
		chain:         chainReader,
		prices:        prices,
		submitter:     submitter,
		validators:    validators,
		feeder:        feeder,
		requested:     cfg.Requested,
		interval:      interval,
		holdOff:       holdOff,
		confirmWindow: confirmWindow,
		dryRun:        cfg.DryRun,
		logger:        logger.With().Str("component", "voter").Logger(),
	}, nil
}

// Run drives ticks sequentially until the context is cancelled. Ticks never
// overlap; a tick may block across several blocks during confirmation. At
// least the configured interval passes between tick starts, compensated for
// tick duration.
func (v *Voter) Run(ctx context.Context) error {
	v.logger.Info().
		Int("validators", len(v.validators)).
		Str("feeder", v.feeder.String()).
		Dur("interval", v.interval).
		Msg("Starting vote loop")

	var st State
	for {
		select {
		case <-ctx.Done():
			v.logger.Info().Msg("Vote loop stopped")
			return ctx.Err()
		default:
		}

		start := time.Now()
		st = v.step(ctx, st)

		if wait := v.interval - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				v.logger.Info().Msg("Vote loop stopped")
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// step runs one tick inside the failure boundary and maps the outcome onto
// the next state. Reveal misses and broadcast failures reset the state; a
// confirmation timeout leaves it untouched so the next tick's period-gap
// check performs the reset.
func (v *Voter) step(ctx context.Context, st State) State {
	next, err := v.tick(ctx, st)
	switch {
	case err == nil:
		return next
	case errors.Is(err, tx.ErrNotConfirmed):
		v.logger.Warn().Err(err).Msg("Vote transaction not confirmed, treating tick as skipped")
		metrics.RecordTick("not_confirmed")
		return st
	case errors.Is(err, ErrRevealMiss):
		v.logger.Warn().Err(err).Msg("Reveal missed, resetting vote state")
		metrics.RecordTick("reveal_miss")
		metrics.RecordRevealMiss()
		return State{}
	default:
		v.logger.Error().Err(err).Msg("Tick failed, resetting vote state")
		metrics.RecordTick("error")
		return State{}
	}
}

// tick runs one pass of the pipeline: period tracking, price aggregation,
// filtering, message building, submission, confirmation.
func (v *Voter) tick(ctx context.Context, st State) (State, error) {
	params, err := v.chain.GetOracleParams(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to read oracle params: %w", err)
	}

	height, err := v.chain.GetLatestHeight(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to read chain height: %w", err)
	}

	info, err := resolvePeriod(height, params.VotePeriod, st.PreviousVotePeriod, v.holdOff)
	if err != nil {
		return st, err
	}
	if !info.Proceed {
		v.logger.Debug().
			Uint64("period", info.CurrentPeriod).
			Uint64("index", info.IndexInPeriod).
			Str("reason", info.SkipReason).
			Msg("Skipping tick")
		metrics.RecordTick("skipped")
		return st, nil
	}

	points := v.prices.FetchPrices(ctx)
	rates := oracle.FilterRates(toRates(points), params.Whitelist, v.requested)

	votes, err := oracle.BuildVotes(rates, v.validators, v.feeder)
	if err != nil {
		return st, fmt.Errorf("failed to build votes: %w", err)
	}

	msgs := make([]sdk.Msg, 0, 2*len(votes))
	if st.Pending != nil {
		// Guarded by the period tracker, but a pending vote from any other
		// period must never be revealed.
		if st.Pending.VotePeriod == info.CurrentPeriod-1 {
			msgs = append(msgs, st.Pending.Msgs()...)
		} else {
			v.logger.Warn().
				Uint64("pending_period", st.Pending.VotePeriod).
				Uint64("current_period", info.CurrentPeriod).
				Msg("Discarding stale pending vote")
		}
	}
	for _, vote := range votes {
		msgs = append(msgs, vote.PrevoteMsg())
	}

	if v.dryRun {
		v.logger.Info().
			Uint64("period", info.CurrentPeriod).
			Int("num_msgs", len(msgs)).
			Str("rates", votes[0].ExchangeRates).
			Msg("Dry run: vote built but not submitted")
		metrics.RecordTick("dry_run")
		return State{
			PreviousVotePeriod: info.CurrentPeriod,
			Pending:            &oracle.PendingVote{Messages: votes, VotePeriod: info.CurrentPeriod},
		}, nil
	}

	confirmedHeight, err := v.submitter.SubmitAndConfirm(ctx, tx.SubmitRequest{
		Msgs:          msgs,
		Feeder:        v.feeder,
		NextHeight:    info.NextHeight,
		ConfirmWindow: v.confirmWindow,
		Memo:          fmt.Sprintf("oracle vote period %d", info.CurrentPeriod),
	})
	if err != nil {
		if !errors.Is(err, tx.ErrNotConfirmed) {
			v.logger.Error().
				Err(err).
				Str("rates", votes[0].ExchangeRates).
				Int("num_msgs", len(msgs)).
				Msg("Vote submission failed")
		}
		return st, err
	}

	v.logger.Info().
		Uint64("period", info.CurrentPeriod).
		Int64("confirmed_height", confirmedHeight).
		Int("prevotes", len(votes)).
		Int("reveals", len(msgs)-len(votes)).
		Msg("Vote cycle completed")
	metrics.RecordTick("voted")

	return State{
		PreviousVotePeriod: uint64(confirmedHeight) / params.VotePeriod,
		Pending:            &oracle.PendingVote{Messages: votes, VotePeriod: info.CurrentPeriod},
	}, nil
}

// toRates converts raw price points to normalized rate entries.
func toRates(points []pricefeed.PricePoint) []oracle.Rate {
	rates := make([]oracle.Rate, len(points))
	for i, p := range points {
		rates[i] = oracle.Rate{
			Currency: strings.ToUpper(p.Currency),
			Price:    p.Price.String(),
		}
	}
	return rates
}
