package starknet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

var selectorMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// Selector returns the entry point selector for name: keccak256 truncated to
// 250 bits (starknet_keccak)
func Selector(name string) *Felt {
	h := new(big.Int).SetBytes(crypto.Keccak256([]byte(name)))
	return (*Felt)(h.And(h, selectorMask))
}
