package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

type mockChain struct {
	mock.Mock
}

func (m *mockChain) GetAccount(ctx context.Context, address sdk.AccAddress) (uint64, uint64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(uint64), args.Get(1).(uint64), args.Error(2)
}

func (m *mockChain) BroadcastTxAsync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	args := m.Called(ctx, txBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sdk.TxResponse), args.Error(1)
}

func (m *mockChain) GetTx(ctx context.Context, txHash string) (*sdk.TxResponse, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sdk.TxResponse), args.Error(1)
}

func (m *mockChain) GetLatestHeight(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestEstimateGas(t *testing.T) {
	assert.Equal(t, uint64(50000), EstimateGas(0))
	assert.Equal(t, uint64(100000), EstimateGas(1))
	assert.Equal(t, uint64(150000), EstimateGas(2))

	// Linear in message count
	assert.Equal(t, EstimateGas(4)-EstimateGas(3), EstimateGas(2)-EstimateGas(1))
}

func TestCalculateFee(t *testing.T) {
	gasPrice := sdk.NewDecCoinFromDec("uluna", sdk.MustNewDecFromStr("28.325"))

	fee := CalculateFee(100000, gasPrice)
	require.Len(t, fee, 1)
	assert.Equal(t, "uluna", fee[0].Denom)
	assert.Equal(t, "2832500", fee[0].Amount.String())
}

func TestCalculateFeeDefaultsWithoutGasPrice(t *testing.T) {
	fee := CalculateFee(100000, sdk.DecCoin{})
	require.Len(t, fee, 1)
	assert.Equal(t, "uluna", fee[0].Denom)
	assert.Equal(t, "3000000", fee[0].Amount.String())
}

func TestCalculateFeeRoundsUp(t *testing.T) {
	gasPrice := sdk.NewDecCoinFromDec("uusd", sdk.MustNewDecFromStr("0.0001"))

	fee := CalculateFee(15, gasPrice)
	require.Len(t, fee, 1)
	// 0.0015 rounds up to a whole micro unit
	assert.Equal(t, "1", fee[0].Amount.String())
}

func newTestBroadcaster(c Chain) *Broadcaster {
	return NewBroadcaster(BroadcasterConfig{
		Chain:    c,
		ChainID:  "columbus-5",
		GasPrice: sdk.NewDecCoinFromDec("uluna", sdk.MustNewDecFromStr("28.325")),
		Logger:   zerolog.Nop(),
	})
}

func TestWaitForInclusionConfirmed(t *testing.T) {
	c := new(mockChain)
	b := newTestBroadcaster(c)

	c.On("GetLatestHeight", mock.Anything).Return(int64(100), nil).Once()
	c.On("GetTx", mock.Anything, "ABCD").Return(&sdk.TxResponse{Code: 0, Height: 100}, nil).Once()

	height, err := b.waitForInclusion(context.Background(), "ABCD", 100, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), height)
	c.AssertExpectations(t)
}

// The transaction may land a block or two after its target height.
func TestWaitForInclusionLateBlock(t *testing.T) {
	c := new(mockChain)
	b := newTestBroadcaster(c)

	notFound := status.Error(codes.NotFound, "tx not found")

	c.On("GetLatestHeight", mock.Anything).Return(int64(100), nil).Once()
	c.On("GetTx", mock.Anything, "ABCD").Return(nil, notFound).Once()
	c.On("GetLatestHeight", mock.Anything).Return(int64(101), nil).Once()
	c.On("GetTx", mock.Anything, "ABCD").Return(&sdk.TxResponse{Code: 0, Height: 101}, nil).Once()

	height, err := b.waitForInclusion(context.Background(), "ABCD", 100, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(101), height)
	c.AssertExpectations(t)
}

// Once the tip moves past nextHeight+window without the transaction showing
// up, confirmation gives up with ErrNotConfirmed.
func TestWaitForInclusionWindowExhausted(t *testing.T) {
	c := new(mockChain)
	b := newTestBroadcaster(c)

	notFound := status.Error(codes.NotFound, "tx not found")

	for h := int64(100); h <= 103; h++ {
		c.On("GetLatestHeight", mock.Anything).Return(h, nil).Once()
		c.On("GetTx", mock.Anything, "ABCD").Return(nil, notFound).Once()
	}

	_, err := b.waitForInclusion(context.Background(), "ABCD", 100, 2)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	c.AssertExpectations(t)
}

// A found transaction with a non-zero code is not a confirmation; polling
// continues in case a later block carries the real inclusion.
func TestWaitForInclusionNonZeroCodeKeepsPolling(t *testing.T) {
	c := new(mockChain)
	b := newTestBroadcaster(c)

	c.On("GetLatestHeight", mock.Anything).Return(int64(100), nil).Once()
	c.On("GetTx", mock.Anything, "ABCD").Return(&sdk.TxResponse{Code: 4, Height: 100, RawLog: "unauthorized"}, nil).Once()
	c.On("GetLatestHeight", mock.Anything).Return(int64(101), nil).Once()
	c.On("GetTx", mock.Anything, "ABCD").Return(&sdk.TxResponse{Code: 0, Height: 101}, nil).Once()

	height, err := b.waitForInclusion(context.Background(), "ABCD", 100, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(101), height)
	c.AssertExpectations(t)
}

func TestWaitForInclusionContextCancelled(t *testing.T) {
	c := new(mockChain)
	b := newTestBroadcaster(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.waitForInclusion(ctx, "ABCD", 100, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmitAndConfirmBroadcastError(t *testing.T) {
	c := new(mockChain)
	b := newTestBroadcaster(c)

	feeder := sdk.AccAddress([]byte("feeder-test-address-"))
	c.On("GetAccount", mock.Anything, feeder).Return(uint64(0), uint64(0), errors.New("account not found"))

	_, err := b.SubmitAndConfirm(context.Background(), SubmitRequest{
		Feeder: feeder,
	})
	assert.Error(t, err)
}
