package starknet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeError struct {
	code int
	msg  string
	data interface{}
}

func (e *nodeError) Error() string          { return e.msg }
func (e *nodeError) ErrorCode() int         { return e.code }
func (e *nodeError) ErrorData() interface{} { return e.data }

// fakeNode serves the starknet_* methods the client uses
type fakeNode struct {
	mu        sync.Mutex
	lastBlock BlockID
	lastTxs   []InvokeTransaction
	lastFlags []SimulationFlag
}

func (n *fakeNode) ChainId() (*Felt, error) {
	return NewFelt(new(big.Int).SetBytes([]byte("SN_SEPOLIA"))), nil
}

func (n *fakeNode) BlockNumber() (uint64, error) {
	return 4242, nil
}

func (n *fakeNode) Call(call FunctionCall, block BlockID) ([]*Felt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastBlock = block
	if call.EntryPointSelector.Cmp(Selector("get_fee")) == 0 {
		return []*Felt{FeltFromUint64(3000)}, nil
	}
	return nil, &nodeError{code: 21, msg: "Invalid message selector"}
}

func (n *fakeNode) GetNonce(block BlockID, address *Felt) (*Felt, error) {
	n.lastBlock = block
	return FeltFromUint64(address.Uint64() + 1), nil
}

func (n *fakeNode) SimulateTransactions(block BlockID, txs []InvokeTransaction, flags []SimulationFlag) ([]SimulatedTransaction, error) {
	n.lastBlock = block
	n.lastTxs = txs
	n.lastFlags = flags
	out := make([]SimulatedTransaction, len(txs))
	for i := range txs {
		out[i] = SimulatedTransaction{
			TransactionTrace: TransactionTrace{
				Type: "INVOKE",
				ExecuteInvocation: &ExecuteInvocation{
					Result: felts(2, 1, 1, 2, 777, 0),
				},
			},
			FeeEstimation: FeeEstimation{OverallFee: FeltFromUint64(1000), Unit: "WEI"},
		}
	}
	return out, nil
}

func newTestClient(t *testing.T) (*Client, *fakeNode) {
	t.Helper()
	node := &fakeNode{}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("starknet", node))
	t.Cleanup(server.Stop)

	c, err := NewClient(context.Background(), rpc.DialInProc(server))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, node
}

func TestClientChainID(t *testing.T) {
	c, _ := newTestClient(t)
	assert.Equal(t, "SN_SEPOLIA", c.ChainID().ShortString())
}

func TestClientBlockNumber(t *testing.T) {
	c, _ := newTestClient(t)
	n, err := c.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4242), n)
}

func TestClientCallContract(t *testing.T) {
	c, node := newTestClient(t)

	got, err := c.CallContract(context.Background(), FeltFromUint64(0x99), "get_fee", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(3000), got[0].Uint64())
	assert.Equal(t, "latest", node.lastBlock.Tag)
}

func TestClientCallContractError(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.CallContract(context.Background(), FeltFromUint64(0x99), "get_nothing", nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "starknet_call", rpcErr.Method)
	assert.Equal(t, 21, rpcErr.Code)
}

func TestClientNonceAtPinnedBlock(t *testing.T) {
	c, node := newTestClient(t)

	nonce, err := c.Nonce(context.Background(), BlockNumber(17), FeltFromUint64(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(6), nonce.Uint64())
	require.NotNil(t, node.lastBlock.Number)
	assert.Equal(t, uint64(17), *node.lastBlock.Number)
}

func TestClientSimulateTransactions(t *testing.T) {
	c, node := newTestClient(t)

	calls := []Call{{ContractAddress: FeltFromUint64(1), EntryPoint: "approve", Calldata: felts(2, 0, 1)}}
	tx := NewInvokeV1(FeltFromUint64(0xacc), calls, FeltFromUint64(3))

	sims, err := c.SimulateTransactions(context.Background(), BlockNumber(99), []InvokeTransaction{tx}, []SimulationFlag{SkipValidate, SkipFeeCharge})
	require.NoError(t, err)
	require.Len(t, sims, 1)

	inv := sims[0].TransactionTrace.ExecuteInvocation
	require.NotNil(t, inv)
	assert.False(t, inv.Reverted())
	assert.Len(t, inv.Result, 6)
	assert.Equal(t, uint64(1000), sims[0].FeeEstimation.OverallFee.Uint64())

	require.Len(t, node.lastTxs, 1)
	assert.Equal(t, "INVOKE", node.lastTxs[0].Type)
	assert.Equal(t, "0x1", node.lastTxs[0].Version)
	assert.Equal(t, uint64(0xacc), node.lastTxs[0].SenderAddress.Uint64())
	assert.Equal(t, []SimulationFlag{SkipValidate, SkipFeeCharge}, node.lastFlags)
}

func TestClientMulticall(t *testing.T) {
	c, _ := newTestClient(t)

	calls := []FunctionCall{
		{ContractAddress: FeltFromUint64(1), EntryPointSelector: Selector("get_fee")},
		{ContractAddress: FeltFromUint64(1), EntryPointSelector: Selector("get_nothing")},
	}
	results, errs := c.Multicall(context.Background(), calls, LatestBlock)
	require.Len(t, results, 2)
	assert.NoError(t, errs[0])
	assert.Equal(t, uint64(3000), results[0][0].Uint64())
	assert.Error(t, errs[1])
}
