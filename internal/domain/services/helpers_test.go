package services

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/infrastructure/dex"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

var (
	tokenA = entities.Token{Address: common.BigToHash(big.NewInt(0x10)), Symbol: "AAA", Decimals: 18}
	tokenB = entities.Token{Address: common.BigToHash(big.NewInt(0x20)), Symbol: "BBB", Decimals: 6}
	tokenC = entities.Token{Address: common.BigToHash(big.NewInt(0x30)), Symbol: "CCC", Decimals: 18}
	tokenD = entities.Token{Address: common.BigToHash(big.NewInt(0x40)), Symbol: "DDD", Decimals: 18}

	testAccount = common.BigToHash(big.NewInt(0xacc))
	testRouter  = common.BigToHash(big.NewInt(0x7777))
	fixedNow    = time.Unix(1_700_000_000, 0)
)

func newTestPool(addr int64, a, b entities.Token, fee uint32) entities.Pool {
	return entities.NewPool(common.BigToHash(big.NewInt(addr)), a, b, fee)
}

func newTestEncoder() *CallEncoder {
	router, err := dex.NewRouter(testRouter)
	if err != nil {
		panic(err)
	}
	enc := NewCallEncoder(router, 30*time.Minute)
	enc.now = func() time.Time { return fixedNow }
	return enc
}

// executeResult is the __execute__ return data of [approve, swap] where the
// swap returns amount
func executeResult(amount *big.Int) []*starknet.Felt {
	u, err := starknet.SplitUint256(amount)
	if err != nil {
		panic(err)
	}
	return []*starknet.Felt{
		starknet.FeltFromUint64(2),
		starknet.FeltFromUint64(1), starknet.FeltFromUint64(1),
		starknet.FeltFromUint64(2), u.Low, u.High,
	}
}

func calldataKey(data []*starknet.Felt) string {
	parts := make([]string, len(data))
	for i, f := range data {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

type simResponse struct {
	sim   starknet.SimulatedTransaction
	err   error
	delay time.Duration
}

// fakeNode answers simulations by the transaction calldata
type fakeNode struct {
	mu        sync.Mutex
	block     uint64
	nonce     *starknet.Felt
	blockErr  error
	nonceErr  error
	responses map[string]simResponse

	blocksSeen []starknet.BlockID
	noncesSeen []*starknet.Felt
	flagsSeen  [][]starknet.SimulationFlag
	inFlight   int
	maxFlight  int
}

func newFakeNode(block uint64) *fakeNode {
	return &fakeNode{
		block:     block,
		nonce:     starknet.FeltFromUint64(7),
		responses: make(map[string]simResponse),
	}
}

func (n *fakeNode) respond(calls []starknet.Call, resp simResponse) {
	n.responses[calldataKey(starknet.EncodeExecuteCalldata(calls))] = resp
}

func (n *fakeNode) succeed(calls []starknet.Call, amount *big.Int) {
	n.respond(calls, simResponse{sim: starknet.SimulatedTransaction{
		TransactionTrace: starknet.TransactionTrace{
			Type:              "INVOKE",
			ExecuteInvocation: &starknet.ExecuteInvocation{Result: executeResult(amount)},
		},
		FeeEstimation: starknet.FeeEstimation{OverallFee: starknet.FeltFromUint64(1234)},
	}})
}

func (n *fakeNode) revert(calls []starknet.Call, reason string) {
	n.respond(calls, simResponse{sim: starknet.SimulatedTransaction{
		TransactionTrace: starknet.TransactionTrace{
			Type:              "INVOKE",
			ExecuteInvocation: &starknet.ExecuteInvocation{RevertReason: reason},
		},
	}})
}

func (n *fakeNode) BlockNumber(ctx context.Context) (uint64, error) {
	if n.blockErr != nil {
		return 0, n.blockErr
	}
	return n.block, nil
}

func (n *fakeNode) Nonce(ctx context.Context, block starknet.BlockID, address *starknet.Felt) (*starknet.Felt, error) {
	if n.nonceErr != nil {
		return nil, n.nonceErr
	}
	return n.nonce, nil
}

func (n *fakeNode) SimulateTransactions(ctx context.Context, block starknet.BlockID, txs []starknet.InvokeTransaction, flags []starknet.SimulationFlag) ([]starknet.SimulatedTransaction, error) {
	n.mu.Lock()
	n.blocksSeen = append(n.blocksSeen, block)
	n.flagsSeen = append(n.flagsSeen, flags)
	for _, tx := range txs {
		n.noncesSeen = append(n.noncesSeen, tx.Nonce)
	}
	n.inFlight++
	if n.inFlight > n.maxFlight {
		n.maxFlight = n.inFlight
	}
	resp, ok := n.responses[calldataKey(txs[0].Calldata)]
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.inFlight--
		n.mu.Unlock()
	}()

	if resp.delay > 0 {
		select {
		case <-time.After(resp.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.New("unexpected transaction")
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return []starknet.SimulatedTransaction{resp.sim}, nil
}

// fakePoolSource serves pools from memory and counts reads
type fakePoolSource struct {
	mu        sync.Mutex
	pools     map[common.Hash]entities.Pool
	failing   map[common.Hash]error
	getCalls  int
	findCalls int
}

func newFakePoolSource(pools ...entities.Pool) *fakePoolSource {
	src := &fakePoolSource{
		pools:   make(map[common.Hash]entities.Pool),
		failing: make(map[common.Hash]error),
	}
	for _, p := range pools {
		src.pools[p.Address] = p
	}
	return src
}

func (f *fakePoolSource) GetPoolAddress(ctx context.Context, tokenA, tokenB common.Hash, fee uint32) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pools {
		if p.Fee == fee && ((p.Token0.Address == tokenA && p.Token1.Address == tokenB) || (p.Token0.Address == tokenB && p.Token1.Address == tokenA)) {
			return p.Address, nil
		}
	}
	return common.Hash{}, nil
}

func (f *fakePoolSource) GetPool(ctx context.Context, address common.Hash) (*entities.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if err, ok := f.failing[address]; ok {
		return nil, err
	}
	p, ok := f.pools[address]
	if !ok {
		return nil, errors.New("pool not found")
	}
	return &p, nil
}

func (f *fakePoolSource) FindPools(ctx context.Context, tokenA, tokenB entities.Token) ([]entities.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	var out []entities.Pool
	for _, fee := range entities.FeeTiers {
		for _, p := range f.pools {
			if p.Fee == fee && p.InvolvesToken(tokenA) && p.InvolvesToken(tokenB) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}
