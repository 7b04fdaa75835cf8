package entities

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var ErrInvalidRoute = errors.New("invalid route")

// Route is an ordered list of pools that swaps Input into Output
type Route struct {
	Pools  []Pool `json:"pools"`
	Input  Token  `json:"input"`
	Output Token  `json:"output"`

	path []Token
}

// NewRoute validates that pools chain from input to output
func NewRoute(pools []Pool, input, output Token) (*Route, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: no pools", ErrInvalidRoute)
	}
	if input.Equals(output) {
		return nil, fmt.Errorf("%w: input equals output", ErrInvalidRoute)
	}

	path := make([]Token, 0, len(pools)+1)
	path = append(path, input)
	seen := make(map[string]struct{}, len(pools))
	current := input

	for i, pool := range pools {
		if _, dup := seen[pool.Address.Hex()]; dup {
			return nil, fmt.Errorf("%w: pool %s used twice", ErrInvalidRoute, ShortAddress(pool.Address))
		}
		seen[pool.Address.Hex()] = struct{}{}

		next, ok := pool.OtherToken(current)
		if !ok {
			return nil, fmt.Errorf("%w: hop %d pool %s does not trade %s", ErrInvalidRoute, i, ShortAddress(pool.Address), current)
		}
		path = append(path, next)
		current = next
	}

	if !current.Equals(output) {
		return nil, fmt.Errorf("%w: route ends in %s, want %s", ErrInvalidRoute, current, output)
	}

	// Input and output keep the caller's metadata
	path[len(path)-1] = output

	return &Route{
		Pools:  append([]Pool(nil), pools...),
		Input:  input,
		Output: output,
		path:   path,
	}, nil
}

// TokenPath returns every token visited, input first
func (r *Route) TokenPath() []Token {
	return append([]Token(nil), r.path...)
}

func (r *Route) Hops() int {
	return len(r.Pools)
}

func (r *Route) IsSingleHop() bool {
	return len(r.Pools) == 1
}

// Key identifies the route by its pool sequence
func (r *Route) Key() string {
	parts := make([]string, len(r.Pools))
	for i, p := range r.Pools {
		parts[i] = ShortAddress(p.Address)
	}
	return strings.Join(parts, ">")
}

func (r *Route) String() string {
	parts := make([]string, len(r.path))
	for i, t := range r.path {
		parts[i] = t.String()
	}
	return strings.Join(parts, " -> ")
}

// MidPrice is the product of pool mid prices along the route (output per
// input, raw units). Nil if any pool price is unknown
func (r *Route) MidPrice() *big.Rat {
	price := big.NewRat(1, 1)
	for i, pool := range r.Pools {
		p := pool.PriceOf(r.path[i])
		if p == nil {
			return nil
		}
		price.Mul(price, p)
	}
	return price
}
