package oracle

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	oracletypes "github.com/classic-terra/core/v3/x/oracle/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// saltBytes is the salt entropy in bytes. Hex-encoded it is 4 characters,
// the maximum salt length the oracle module accepts.
const saltBytes = 2

// VoteMessage is one validator's salted vote for a period. It carries the
// composite exchange-rate string, a fresh salt, and the addresses involved;
// both the reveal and its hash commitment derive from it.
type VoteMessage struct {
	ExchangeRates string
	Salt          string
	Feeder        sdk.AccAddress
	Validator     sdk.ValAddress
}

// PendingVote is the in-memory reveal payload carried into the next period.
// It is intentionally not persisted: a crash loses one vote, which is safer
// than revealing against a stale commitment.
type PendingVote struct {
	Messages   []VoteMessage
	VotePeriod uint64
}

// Msgs returns the reveal messages for the pending vote.
func (p *PendingVote) Msgs() []sdk.Msg {
	msgs := make([]sdk.Msg, len(p.Messages))
	for i, m := range p.Messages {
		msgs[i] = m.VoteMsg()
	}
	return msgs
}

// GenerateSalt draws a fresh random 2-byte salt, hex encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// BuildRatesString joins filtered rates into one composite exchange-rate
// string: "<price>u<denom>,...". Example: "1.724ukrw,0.000000000000000000uusd".
func BuildRatesString(rates []Rate) string {
	parts := make([]string, len(rates))
	for i, rate := range rates {
		parts[i] = rate.Price + DeriveDenom(rate.Currency)
	}
	return strings.Join(parts, ",")
}

// NewVoteMessage builds one salted vote message for a validator. The rates
// string is validated as parseable exchange-rate tuples before committing.
func NewVoteMessage(rates string, feeder sdk.AccAddress, validator sdk.ValAddress) (VoteMessage, error) {
	if rates == "" {
		return VoteMessage{}, ErrNoRates
	}
	if _, err := oracletypes.ParseExchangeRateTuples(rates); err != nil {
		return VoteMessage{}, fmt.Errorf("invalid exchange rates %q: %w", rates, err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return VoteMessage{}, err
	}

	return VoteMessage{
		ExchangeRates: rates,
		Salt:          salt,
		Feeder:        feeder,
		Validator:     validator,
	}, nil
}

// BuildVotes builds one vote message per validator from the filtered rates,
// each with an independently drawn salt.
func BuildVotes(rates []Rate, validators []sdk.ValAddress, feeder sdk.AccAddress) ([]VoteMessage, error) {
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}

	ratesStr := BuildRatesString(rates)

	votes := make([]VoteMessage, 0, len(validators))
	for _, validator := range validators {
		msg, err := NewVoteMessage(ratesStr, feeder, validator)
		if err != nil {
			return nil, err
		}
		votes = append(votes, msg)
	}
	return votes, nil
}

// VoteMsg returns the reveal message: the plaintext rates and salt matching a
// prior commitment.
func (m VoteMessage) VoteMsg() *oracletypes.MsgAggregateExchangeRateVote {
	return oracletypes.NewMsgAggregateExchangeRateVote(
		m.Salt,
		m.ExchangeRates,
		m.Feeder,
		m.Validator,
	)
}

// PrevoteMsg returns the hash commitment over {salt, rates, validator},
// submitted one period ahead of the reveal.
func (m VoteMessage) PrevoteMsg() *oracletypes.MsgAggregateExchangeRatePrevote {
	hash := oracletypes.GetAggregateVoteHash(m.Salt, m.ExchangeRates, m.Validator)
	return oracletypes.NewMsgAggregateExchangeRatePrevote(hash, m.Feeder, m.Validator)
}
