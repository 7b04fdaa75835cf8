package entities

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token is an ERC20-style token identified by its Starknet contract address.
// Addresses are felts stored big-endian in 32 bytes
type Token struct {
	Address  common.Hash `json:"address"`
	Symbol   string      `json:"symbol"`
	Name     string      `json:"name"`
	Decimals uint8       `json:"decimals"`
}

func (t Token) Equals(other Token) bool {
	return t.Address == other.Address
}

// SortsBefore orders tokens by numeric address, the order pools use for
// token0/token1
func (t Token) SortsBefore(other Token) bool {
	return bytes.Compare(t.Address[:], other.Address[:]) < 0
}

func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return ShortAddress(t.Address)
}

// ParseAddress parses a hex contract address. Starknet addresses are below
// 2^251
func ParseAddress(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Hash{}, fmt.Errorf("address %q: missing 0x prefix", s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return common.Hash{}, fmt.Errorf("address %q: invalid hex", s)
	}
	if v.BitLen() > 251 {
		return common.Hash{}, fmt.Errorf("address %q: exceeds 251 bits", s)
	}
	return common.BigToHash(v), nil
}

// MustParseAddress is ParseAddress for compile-time constants
func MustParseAddress(s string) common.Hash {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// ShortAddress renders an address without leading zeros
func ShortAddress(addr common.Hash) string {
	return "0x" + addr.Big().Text(16)
}

// TokenAmount is a raw (smallest unit) amount of a token
type TokenAmount struct {
	Token Token    `json:"token"`
	Raw   *big.Int `json:"raw"`
}

func NewTokenAmount(token Token, raw *big.Int) TokenAmount {
	return TokenAmount{Token: token, Raw: raw}
}

func (a TokenAmount) IsPositive() bool {
	return a.Raw != nil && a.Raw.Sign() > 0
}

// ETH is Ether on Starknet mainnet
var ETH = Token{
	Address:  MustParseAddress("0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"),
	Symbol:   "ETH",
	Name:     "Ether",
	Decimals: 18,
}

// STRK is the Starknet token
var STRK = Token{
	Address:  MustParseAddress("0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d"),
	Symbol:   "STRK",
	Name:     "Starknet Token",
	Decimals: 18,
}

// USDC is bridged USD Coin on Starknet mainnet
var USDC = Token{
	Address:  MustParseAddress("0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8"),
	Symbol:   "USDC",
	Name:     "USD Coin",
	Decimals: 6,
}

// USDT is bridged Tether USD on Starknet mainnet
var USDT = Token{
	Address:  MustParseAddress("0x068f5c6a61780768455de69077e07e89787839bf8166decfbf92b645209c0fb8"),
	Symbol:   "USDT",
	Name:     "Tether USD",
	Decimals: 6,
}

// DAI is bridged Dai Stablecoin on Starknet mainnet
var DAI = Token{
	Address:  MustParseAddress("0x00da114221cb83fa859dbdb4c44beeaa0bb37c7537ad5ae66fe5e0efd20e6eb3"),
	Symbol:   "DAI",
	Name:     "Dai Stablecoin",
	Decimals: 18,
}

// WBTC is bridged Wrapped BTC on Starknet mainnet
var WBTC = Token{
	Address:  MustParseAddress("0x03fe2b97c1fd336e750087d68b9b867997fd64a2661ff3ca5a7c771641e8e7ac"),
	Symbol:   "WBTC",
	Name:     "Wrapped BTC",
	Decimals: 8,
}
