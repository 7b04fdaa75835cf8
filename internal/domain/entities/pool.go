package entities

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fee tiers in hundredths of a bip (1 = 0.0001%)
const (
	FeeLowest uint32 = 100   // 0.01%
	FeeLow    uint32 = 500   // 0.05%
	FeeMedium uint32 = 3000  // 0.30%
	FeeHigh   uint32 = 10000 // 1.00%
)

// FeeTiers lists the fee tiers pools are deployed with
var FeeTiers = []uint32{FeeLowest, FeeLow, FeeMedium, FeeHigh}

var ErrInvalidPool = errors.New("invalid pool")

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// Pool is a snapshot of a concentrated liquidity pool
type Pool struct {
	Address      common.Hash `json:"address"`
	Token0       Token       `json:"token0"`
	Token1       Token       `json:"token1"`
	Fee          uint32      `json:"fee"`
	Liquidity    *big.Int    `json:"liquidity,omitempty"`
	SqrtPriceX96 *big.Int    `json:"sqrtPriceX96,omitempty"`
	UpdatedAt    int64       `json:"updatedAt"`
}

// NewPool orders tokenA and tokenB into token0/token1
func NewPool(address common.Hash, tokenA, tokenB Token, fee uint32) Pool {
	token0, token1 := tokenA, tokenB
	if tokenB.SortsBefore(tokenA) {
		token0, token1 = tokenB, tokenA
	}
	return Pool{
		Address: address,
		Token0:  token0,
		Token1:  token1,
		Fee:     fee,
	}
}

func (p Pool) Validate() error {
	if p.Token0.Equals(p.Token1) {
		return fmt.Errorf("%w: identical tokens %s", ErrInvalidPool, p.Token0)
	}
	if !p.Token0.SortsBefore(p.Token1) {
		return fmt.Errorf("%w: tokens not sorted", ErrInvalidPool)
	}
	if p.Fee == 0 || p.Fee >= 1_000_000 {
		return fmt.Errorf("%w: fee %d out of range", ErrInvalidPool, p.Fee)
	}
	return nil
}

func (p Pool) InvolvesToken(t Token) bool {
	return p.Token0.Equals(t) || p.Token1.Equals(t)
}

// OtherToken returns the token on the opposite side of t
func (p Pool) OtherToken(t Token) (Token, bool) {
	switch {
	case p.Token0.Equals(t):
		return p.Token1, true
	case p.Token1.Equals(t):
		return p.Token0, true
	default:
		return Token{}, false
	}
}

// HasLiquidity reports false only for pools known to be empty. Unknown
// liquidity counts as available
func (p Pool) HasLiquidity() bool {
	return p.Liquidity == nil || p.Liquidity.Sign() > 0
}

// PriceOf returns the mid price of t in units of the other token (raw
// amounts), derived from sqrtPriceX96. Nil when the price is unknown
func (p Pool) PriceOf(t Token) *big.Rat {
	if p.SqrtPriceX96 == nil || p.SqrtPriceX96.Sign() == 0 || !p.InvolvesToken(t) {
		return nil
	}

	// token0 price = sqrtP^2 / 2^192
	num := new(big.Int).Mul(p.SqrtPriceX96, p.SqrtPriceX96)
	den := new(big.Int).Mul(q96, q96)
	price0 := new(big.Rat).SetFrac(num, den)
	if p.Token0.Equals(t) {
		return price0
	}
	return new(big.Rat).Inv(price0)
}
