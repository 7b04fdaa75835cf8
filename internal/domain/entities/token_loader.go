package entities

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenConfig represents token configuration from JSON
type TokenConfig struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// TokensConfig represents the tokens.json structure
type TokensConfig struct {
	Tokens []TokenConfig `json:"tokens"`
}

// TokenRegistry holds loaded tokens indexed by address and symbol
type TokenRegistry struct {
	byAddress map[common.Hash]Token
	bySymbol  map[string]Token
	all       []Token
}

// NewTokenRegistry creates a new token registry
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{
		byAddress: make(map[common.Hash]Token),
		bySymbol:  make(map[string]Token),
		all:       make([]Token, 0),
	}
}

// LoadFromFile loads tokens from a JSON config file
func (r *TokenRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read token config: %w", err)
	}

	var config TokensConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse token config: %w", err)
	}

	for _, tc := range config.Tokens {
		addr, err := ParseAddress(tc.Address)
		if err != nil {
			return fmt.Errorf("token %s: %w", tc.Symbol, err)
		}
		r.Register(Token{
			Address:  addr,
			Symbol:   tc.Symbol,
			Name:     tc.Name,
			Decimals: tc.Decimals,
		})
	}

	return nil
}

// Register adds a token to the registry, replacing any token with the same
// address
func (r *TokenRegistry) Register(token Token) {
	if _, exists := r.byAddress[token.Address]; !exists {
		r.all = append(r.all, token)
	} else {
		for i := range r.all {
			if r.all[i].Address == token.Address {
				r.all[i] = token
			}
		}
	}
	r.byAddress[token.Address] = token
	r.bySymbol[strings.ToUpper(token.Symbol)] = token
}

// GetByAddress returns a token by its address
func (r *TokenRegistry) GetByAddress(addr common.Hash) (Token, bool) {
	token, ok := r.byAddress[addr]
	return token, ok
}

// GetBySymbol returns a token by its symbol, case-insensitively
func (r *TokenRegistry) GetBySymbol(symbol string) (Token, bool) {
	token, ok := r.bySymbol[strings.ToUpper(symbol)]
	return token, ok
}

// Resolve returns the registered token or a placeholder with 18 decimals
func (r *TokenRegistry) Resolve(addr common.Hash) Token {
	if token, ok := r.byAddress[addr]; ok {
		return token
	}
	return Token{
		Address:  addr,
		Symbol:   "UNKNOWN",
		Decimals: 18,
	}
}

// Lookup accepts either a symbol or a hex address
func (r *TokenRegistry) Lookup(ref string) (Token, error) {
	if strings.HasPrefix(ref, "0x") || strings.HasPrefix(ref, "0X") {
		addr, err := ParseAddress(ref)
		if err != nil {
			return Token{}, err
		}
		return r.Resolve(addr), nil
	}
	if token, ok := r.GetBySymbol(ref); ok {
		return token, nil
	}
	return Token{}, fmt.Errorf("unknown token %q", ref)
}

// GetAll returns all registered tokens
func (r *TokenRegistry) GetAll() []Token {
	return r.all
}

// Count returns the number of registered tokens
func (r *TokenRegistry) Count() int {
	return len(r.all)
}

// DefaultRegistry returns a registry with hardcoded default tokens
// Use this as fallback if config file is not available
func DefaultRegistry() *TokenRegistry {
	r := NewTokenRegistry()
	r.Register(ETH)
	r.Register(STRK)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(DAI)
	r.Register(WBTC)
	return r
}
