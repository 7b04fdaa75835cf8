package starknet

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Uint256 is the Cairo u256 calldata representation: two 128-bit felts,
// low word first
type Uint256 struct {
	Low  *Felt
	High *Felt
}

// SplitUint256 splits v into its low and high 128-bit words
func SplitUint256(v *big.Int) (Uint256, error) {
	if v == nil || v.Sign() < 0 {
		return Uint256{}, fmt.Errorf("u256: negative or nil value")
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return Uint256{}, fmt.Errorf("u256: value %s exceeds 256 bits", v.String())
	}

	low := &uint256.Int{u[0], u[1], 0, 0}
	high := &uint256.Int{u[2], u[3], 0, 0}
	return Uint256{
		Low:  (*Felt)(low.ToBig()),
		High: (*Felt)(high.ToBig()),
	}, nil
}

// JoinUint256 rebuilds low + high*2^128. Both words must fit in 128 bits
func JoinUint256(low, high *Felt) (*big.Int, error) {
	if low == nil || high == nil {
		return nil, fmt.Errorf("u256: missing word")
	}
	lo, overflow := uint256.FromBig(low.Big())
	if overflow || lo[2] != 0 || lo[3] != 0 {
		return nil, fmt.Errorf("u256: low word %s exceeds 128 bits", low.String())
	}
	hi, overflow := uint256.FromBig(high.Big())
	if overflow || hi[2] != 0 || hi[3] != 0 {
		return nil, fmt.Errorf("u256: high word %s exceeds 128 bits", high.String())
	}

	joined := &uint256.Int{lo[0], lo[1], hi[0], hi[1]}
	return joined.ToBig(), nil
}

// Felts returns the calldata encoding [low, high]
func (u Uint256) Felts() []*Felt {
	return []*Felt{u.Low, u.High}
}

func (u Uint256) Big() *big.Int {
	v, err := JoinUint256(u.Low, u.High)
	if err != nil {
		return new(big.Int)
	}
	return v
}
