package starknet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"
)

const multicallConcurrency = 10

// RPCError is a JSON-RPC error returned by the Starknet node
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    interface{}
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s: rpc error %d: %s (%v)", e.Method, e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

// Client wraps a JSON-RPC connection to a Starknet node
type Client struct {
	rpc     *rpc.Client
	chainID *Felt
	mu      sync.RWMutex
}

// Dial connects to the node at rpcURL and caches its chain id
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	rc, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial starknet node: %w", err)
	}

	c, err := NewClient(ctx, rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return c, nil
}

// NewClient wraps an existing RPC connection
func NewClient(ctx context.Context, rc *rpc.Client) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c := &Client{rpc: rc}
	var chainID Felt
	if err := c.call(ctx, &chainID, "starknet_chainId"); err != nil {
		return nil, err
	}
	c.chainID = &chainID
	return c, nil
}

// Close closes the underlying client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rpc.Close()
}

// ChainID returns the chain id reported at connect time
func (c *Client) ChainID() *Felt {
	return c.chainID
}

// BlockNumber returns the latest accepted block number
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	if err := c.call(ctx, &n, "starknet_blockNumber"); err != nil {
		return 0, err
	}
	return n, nil
}

// Call executes a read-only contract call
func (c *Client) Call(ctx context.Context, call FunctionCall, block BlockID) ([]*Felt, error) {
	if call.Calldata == nil {
		call.Calldata = []*Felt{}
	}
	var result []*Felt
	if err := c.call(ctx, &result, "starknet_call", call, block); err != nil {
		return nil, err
	}
	return result, nil
}

// CallContract calls entryPoint on contract at the latest block
func (c *Client) CallContract(ctx context.Context, contract *Felt, entryPoint string, calldata []*Felt) ([]*Felt, error) {
	return c.Call(ctx, FunctionCall{
		ContractAddress:    contract,
		EntryPointSelector: Selector(entryPoint),
		Calldata:           calldata,
	}, LatestBlock)
}

// Nonce returns the account nonce at block
func (c *Client) Nonce(ctx context.Context, block BlockID, address *Felt) (*Felt, error) {
	var nonce Felt
	if err := c.call(ctx, &nonce, "starknet_getNonce", block, address); err != nil {
		return nil, err
	}
	return &nonce, nil
}

// SimulateTransactions runs txs against block without committing state
func (c *Client) SimulateTransactions(ctx context.Context, block BlockID, txs []InvokeTransaction, flags []SimulationFlag) ([]SimulatedTransaction, error) {
	if flags == nil {
		flags = []SimulationFlag{}
	}
	var result []SimulatedTransaction
	if err := c.call(ctx, &result, "starknet_simulateTransactions", block, txs, flags); err != nil {
		return nil, err
	}
	return result, nil
}

// Multicall performs several read calls concurrently against the same block.
// Results and errors are index-aligned with calls
func (c *Client) Multicall(ctx context.Context, calls []FunctionCall, block BlockID) ([][]*Felt, []error) {
	results := make([][]*Felt, len(calls))
	errs := make([]error, len(calls))

	var g errgroup.Group
	g.SetLimit(multicallConcurrency)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i], errs[i] = c.Call(ctx, call, block)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	err := c.rpc.CallContext(ctx, result, method, args...)
	if err == nil {
		return nil
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		wrapped := &RPCError{Method: method, Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			wrapped.Data = dataErr.ErrorData()
		}
		return wrapped
	}
	return fmt.Errorf("%s: %w", method, err)
}
