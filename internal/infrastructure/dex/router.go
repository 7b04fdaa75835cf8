package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

// Router and token entry points
const (
	EntryPointApprove           = "approve"
	EntryPointExactInputSingle  = "exact_input_single"
	EntryPointExactInput        = "exact_input"
	EntryPointExactOutputSingle = "exact_output_single"
	EntryPointExactOutput       = "exact_output"
)

// PathHop is one pool traversal in route order
type PathHop struct {
	TokenIn  common.Hash
	TokenOut common.Hash
	Fee      uint32
}

type ExactInputSingleParams struct {
	TokenIn           common.Hash
	TokenOut          common.Hash
	Fee               uint32
	Recipient         common.Hash
	Deadline          uint64
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

type ExactInputParams struct {
	Path             []PathHop
	Recipient        common.Hash
	Deadline         uint64
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

type ExactOutputSingleParams struct {
	TokenIn           common.Hash
	TokenOut          common.Hash
	Fee               uint32
	Recipient         common.Hash
	Deadline          uint64
	AmountOut         *big.Int
	AmountInMaximum   *big.Int
	SqrtPriceLimitX96 *big.Int
}

type ExactOutputParams struct {
	// Path is in route order (input token first)
	Path            []PathHop
	Recipient       common.Hash
	Deadline        uint64
	AmountOut       *big.Int
	AmountInMaximum *big.Int
}

// Router encodes swap router calls
type Router struct {
	address common.Hash
	felt    *starknet.Felt
}

func NewRouter(address common.Hash) (*Router, error) {
	f, err := starknet.FeltFromHash(address)
	if err != nil {
		return nil, fmt.Errorf("invalid router address: %w", err)
	}
	return &Router{address: address, felt: f}, nil
}

func (r *Router) Address() common.Hash {
	return r.address
}

// ExactInputSingle encodes
// [token_in, token_out, fee, recipient, deadline, amount_in, amount_out_minimum, sqrt_price_limit_X96]
func (r *Router) ExactInputSingle(p ExactInputSingleParams) (starknet.Call, error) {
	enc := newEncoder()
	enc.address(p.TokenIn)
	enc.address(p.TokenOut)
	enc.uint(uint64(p.Fee))
	enc.address(p.Recipient)
	enc.uint(p.Deadline)
	enc.u256(p.AmountIn)
	enc.u256(p.AmountOutMinimum)
	enc.u256(p.SqrtPriceLimitX96)
	return enc.call(r.felt, EntryPointExactInputSingle)
}

// ExactInput encodes [path_len, path..., recipient, deadline, amount_in, amount_out_minimum]
// with the path as (token_in, token_out, fee) triples in route order
func (r *Router) ExactInput(p ExactInputParams) (starknet.Call, error) {
	if len(p.Path) == 0 {
		return starknet.Call{}, fmt.Errorf("exact_input: empty path")
	}
	enc := newEncoder()
	enc.uint(uint64(len(p.Path) * 3))
	for _, hop := range p.Path {
		enc.address(hop.TokenIn)
		enc.address(hop.TokenOut)
		enc.uint(uint64(hop.Fee))
	}
	enc.address(p.Recipient)
	enc.uint(p.Deadline)
	enc.u256(p.AmountIn)
	enc.u256(p.AmountOutMinimum)
	return enc.call(r.felt, EntryPointExactInput)
}

// ExactOutputSingle encodes
// [token_in, token_out, fee, recipient, deadline, amount_out, amount_in_maximum, sqrt_price_limit_X96]
func (r *Router) ExactOutputSingle(p ExactOutputSingleParams) (starknet.Call, error) {
	enc := newEncoder()
	enc.address(p.TokenIn)
	enc.address(p.TokenOut)
	enc.uint(uint64(p.Fee))
	enc.address(p.Recipient)
	enc.uint(p.Deadline)
	enc.u256(p.AmountOut)
	enc.u256(p.AmountInMaximum)
	enc.u256(p.SqrtPriceLimitX96)
	return enc.call(r.felt, EntryPointExactOutputSingle)
}

// ExactOutput encodes the path from the output side: hops reversed, each as
// (token_out, token_in, fee)
func (r *Router) ExactOutput(p ExactOutputParams) (starknet.Call, error) {
	if len(p.Path) == 0 {
		return starknet.Call{}, fmt.Errorf("exact_output: empty path")
	}
	enc := newEncoder()
	enc.uint(uint64(len(p.Path) * 3))
	for i := len(p.Path) - 1; i >= 0; i-- {
		hop := p.Path[i]
		enc.address(hop.TokenOut)
		enc.address(hop.TokenIn)
		enc.uint(uint64(hop.Fee))
	}
	enc.address(p.Recipient)
	enc.uint(p.Deadline)
	enc.u256(p.AmountOut)
	enc.u256(p.AmountInMaximum)
	return enc.call(r.felt, EntryPointExactOutput)
}

// Approve encodes token.approve(spender, amount)
func Approve(token, spender common.Hash, amount *big.Int) (starknet.Call, error) {
	tokenFelt, err := starknet.FeltFromHash(token)
	if err != nil {
		return starknet.Call{}, fmt.Errorf("invalid token address: %w", err)
	}
	enc := newEncoder()
	enc.address(spender)
	enc.u256(amount)
	return enc.call(tokenFelt, EntryPointApprove)
}

// encoder accumulates calldata and keeps the first error
type encoder struct {
	data []*starknet.Felt
	err  error
}

func newEncoder() *encoder {
	return &encoder{data: make([]*starknet.Felt, 0, 16)}
}

func (e *encoder) address(h common.Hash) {
	if e.err != nil {
		return
	}
	f, err := starknet.FeltFromHash(h)
	if err != nil {
		e.err = err
		return
	}
	e.data = append(e.data, f)
}

func (e *encoder) uint(v uint64) {
	e.data = append(e.data, starknet.FeltFromUint64(v))
}

// u256 encodes nil as zero
func (e *encoder) u256(v *big.Int) {
	if e.err != nil {
		return
	}
	if v == nil {
		v = new(big.Int)
	}
	u, err := starknet.SplitUint256(v)
	if err != nil {
		e.err = err
		return
	}
	e.data = append(e.data, u.Felts()...)
}

func (e *encoder) call(contract *starknet.Felt, entryPoint string) (starknet.Call, error) {
	if e.err != nil {
		return starknet.Call{}, fmt.Errorf("%s: %w", entryPoint, e.err)
	}
	return starknet.Call{
		ContractAddress: contract,
		EntryPoint:      entryPoint,
		Calldata:        e.data,
	}, nil
}
