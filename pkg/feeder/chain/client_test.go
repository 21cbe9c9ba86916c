package chain

import (
	"context"
	"errors"
	"testing"

	oracletypes "github.com/classic-terra/core/v3/x/oracle/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	"github.com/cosmos/cosmos-sdk/client/grpc/tmservice"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txservice "github.com/cosmos/cosmos-sdk/types/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type stubOracle struct {
	resp *oracletypes.QueryParamsResponse
	err  error
}

func (s *stubOracle) Params(context.Context, *oracletypes.QueryParamsRequest, ...grpc.CallOption) (*oracletypes.QueryParamsResponse, error) {
	return s.resp, s.err
}

type stubAuth struct {
	resp *authtypes.QueryAccountResponse
	err  error
}

func (s *stubAuth) Account(context.Context, *authtypes.QueryAccountRequest, ...grpc.CallOption) (*authtypes.QueryAccountResponse, error) {
	return s.resp, s.err
}

type stubTendermint struct {
	resp *tmservice.GetLatestBlockResponse
	err  error
}

func (s *stubTendermint) GetLatestBlock(context.Context, *tmservice.GetLatestBlockRequest, ...grpc.CallOption) (*tmservice.GetLatestBlockResponse, error) {
	return s.resp, s.err
}

type stubTxService struct {
	broadcastResp *txservice.BroadcastTxResponse
	broadcastReq  *txservice.BroadcastTxRequest
	getTxResp     *txservice.GetTxResponse
	err           error
}

func (s *stubTxService) BroadcastTx(_ context.Context, req *txservice.BroadcastTxRequest, _ ...grpc.CallOption) (*txservice.BroadcastTxResponse, error) {
	s.broadcastReq = req
	return s.broadcastResp, s.err
}

func (s *stubTxService) GetTx(context.Context, *txservice.GetTxRequest, ...grpc.CallOption) (*txservice.GetTxResponse, error) {
	return s.getTxResp, s.err
}

func testClient() *Client {
	return &Client{
		logger:    zerolog.Nop(),
		endpoints: []string{"a:9090", "b:9090", "c:9090"},
		conns:     make([]*grpc.ClientConn, 3),
	}
}

func TestNewClientRequiresEndpoints(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.ErrorIs(t, err, ErrNoEndpointsRequired)
}

func TestFailoverRotation(t *testing.T) {
	c := testClient()
	assert.Equal(t, "a:9090", c.CurrentEndpoint())

	c.Failover()
	assert.Equal(t, "b:9090", c.CurrentEndpoint())
	c.Failover()
	assert.Equal(t, "c:9090", c.CurrentEndpoint())
	c.Failover()
	assert.Equal(t, "a:9090", c.CurrentEndpoint())
}

func TestWithFailoverSuccess(t *testing.T) {
	c := testClient()

	got, err := WithFailover(c, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestWithFailoverRetryExhausted(t *testing.T) {
	c := testClient()

	calls := 0
	_, err := WithFailoverRetry(c, func() (int, error) {
		calls++
		return 0, errors.New("tx not found")
	}, 1)
	assert.ErrorIs(t, err, ErrAllAttemptsFailed)
	assert.Equal(t, 1, calls)
}

func TestGetOracleParams(t *testing.T) {
	c := testClient()
	c.oracleClient = &stubOracle{resp: &oracletypes.QueryParamsResponse{
		Params: oracletypes.Params{
			VotePeriod: 5,
			Whitelist: oracletypes.DenomList{
				{Name: "uusd"},
				{Name: "ukrw"},
			},
		},
	}}

	params, err := c.GetOracleParams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), params.VotePeriod)
	assert.Equal(t, []string{"uusd", "ukrw"}, params.Whitelist)
}

func TestGetOracleParamsRejectsZeroPeriod(t *testing.T) {
	c := testClient()
	c.oracleClient = &stubOracle{resp: &oracletypes.QueryParamsResponse{
		Params: oracletypes.Params{VotePeriod: 0},
	}}

	_, err := c.GetOracleParams(context.Background())
	assert.ErrorIs(t, err, ErrInvalidVotePeriod)
}

func TestGetLatestHeight(t *testing.T) {
	c := testClient()
	c.tmClient = &stubTendermint{resp: &tmservice.GetLatestBlockResponse{
		SdkBlock: &tmservice.Block{Header: tmservice.Header{Height: 12345}},
	}}

	height, err := c.GetLatestHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12345), height)
}

// Older nodes only populate the deprecated block field.
func TestGetLatestHeightBlockFallback(t *testing.T) {
	c := testClient()
	c.tmClient = &stubTendermint{resp: &tmservice.GetLatestBlockResponse{
		Block: &tmproto.Block{Header: tmproto.Header{Height: 54321}}, //nolint:staticcheck
	}}

	height, err := c.GetLatestHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(54321), height)
}

func TestGetLatestHeightEmptyResponse(t *testing.T) {
	c := testClient()
	c.tmClient = &stubTendermint{resp: &tmservice.GetLatestBlockResponse{}}

	_, err := c.GetLatestHeight(context.Background())
	assert.ErrorIs(t, err, ErrEmptyBlockResponse)
}

func TestGetAccount(t *testing.T) {
	ir := codectypes.NewInterfaceRegistry()
	authtypes.RegisterInterfaces(ir)

	addr := sdk.AccAddress([]byte("feeder-test-address-"))
	acc := &authtypes.BaseAccount{Address: addr.String(), AccountNumber: 7, Sequence: 42}
	anyAcc, err := codectypes.NewAnyWithValue(acc)
	require.NoError(t, err)

	c := testClient()
	c.ir = ir
	c.authClient = &stubAuth{resp: &authtypes.QueryAccountResponse{Account: anyAcc}}

	accNum, sequence, err := c.GetAccount(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), accNum)
	assert.Equal(t, uint64(42), sequence)
}

func TestBroadcastTxAsyncUsesAsyncMode(t *testing.T) {
	stub := &stubTxService{broadcastResp: &txservice.BroadcastTxResponse{
		TxResponse: &sdk.TxResponse{Code: 0, TxHash: "ABCD"},
	}}

	c := testClient()
	c.txClient = stub

	resp, err := c.BroadcastTxAsync(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "ABCD", resp.TxHash)
	require.NotNil(t, stub.broadcastReq)
	assert.Equal(t, txservice.BroadcastMode_BROADCAST_MODE_ASYNC, stub.broadcastReq.Mode)
}

func TestGetTxPassesErrorThrough(t *testing.T) {
	wantErr := errors.New("rpc error: code = NotFound desc = tx not found")

	c := testClient()
	c.txClient = &stubTxService{err: wantErr}

	_, err := c.GetTx(context.Background(), "ABCD")
	assert.ErrorIs(t, err, wantErr)
}
