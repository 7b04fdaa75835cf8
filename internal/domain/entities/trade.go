package entities

import (
	"errors"
	"fmt"
	"math/big"
)

// TradeType selects which side of the swap is fixed
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	switch t {
	case ExactInput:
		return "exact_in"
	case ExactOutput:
		return "exact_out"
	default:
		return fmt.Sprintf("trade_type(%d)", int(t))
	}
}

func (t TradeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func ParseTradeType(s string) (TradeType, error) {
	switch s {
	case "", "exact_in", "exactIn", "EXACT_INPUT":
		return ExactInput, nil
	case "exact_out", "exactOut", "EXACT_OUTPUT":
		return ExactOutput, nil
	default:
		return 0, fmt.Errorf("unknown trade type %q", s)
	}
}

// TradeState is the outcome of a best-trade computation
type TradeState int

const (
	TradeStateInvalid TradeState = iota
	TradeStateNoRouteFound
	TradeStateValid
)

func (s TradeState) String() string {
	switch s {
	case TradeStateInvalid:
		return "invalid"
	case TradeStateNoRouteFound:
		return "no_route_found"
	case TradeStateValid:
		return "valid"
	default:
		return fmt.Sprintf("trade_state(%d)", int(s))
	}
}

func (s TradeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrInvalidTrade = errors.New("invalid trade")

const bpsDenominator = 10000

// Trade is a route with simulated input and output amounts
type Trade struct {
	Route        *Route      `json:"route"`
	TradeType    TradeType   `json:"tradeType"`
	InputAmount  TokenAmount `json:"inputAmount"`
	OutputAmount TokenAmount `json:"outputAmount"`
	BlockNumber  uint64      `json:"blockNumber"`
	FeeEstimate  *big.Int    `json:"feeEstimate,omitempty"`
}

// NewTrade assembles a trade without re-deriving amounts from pool state
func NewTrade(route *Route, tradeType TradeType, input, output TokenAmount) (*Trade, error) {
	if route == nil {
		return nil, fmt.Errorf("%w: nil route", ErrInvalidTrade)
	}
	if !input.Token.Equals(route.Input) || !output.Token.Equals(route.Output) {
		return nil, fmt.Errorf("%w: amounts do not match route %s", ErrInvalidTrade, route)
	}
	if !input.IsPositive() || !output.IsPositive() {
		return nil, fmt.Errorf("%w: amounts must be positive", ErrInvalidTrade)
	}
	return &Trade{
		Route:        route,
		TradeType:    tradeType,
		InputAmount:  input,
		OutputAmount: output,
	}, nil
}

// MinimumAmountOut is the output bound for the given slippage tolerance.
// Exact output trades return the fixed output
func (t *Trade) MinimumAmountOut(slippageBps uint64) *big.Int {
	if t.TradeType == ExactOutput {
		return new(big.Int).Set(t.OutputAmount.Raw)
	}
	// out * 1 / (1 + slippage)
	num := new(big.Int).Mul(t.OutputAmount.Raw, big.NewInt(bpsDenominator))
	return num.Div(num, new(big.Int).SetUint64(bpsDenominator+slippageBps))
}

// MaximumAmountIn is the input bound for the given slippage tolerance.
// Exact input trades return the fixed input
func (t *Trade) MaximumAmountIn(slippageBps uint64) *big.Int {
	if t.TradeType == ExactInput {
		return new(big.Int).Set(t.InputAmount.Raw)
	}
	num := new(big.Int).Mul(t.InputAmount.Raw, new(big.Int).SetUint64(bpsDenominator+slippageBps))
	return num.Div(num, big.NewInt(bpsDenominator))
}

// ExecutionPrice is output per input in raw units
func (t *Trade) ExecutionPrice() *big.Rat {
	return new(big.Rat).SetFrac(t.OutputAmount.Raw, t.InputAmount.Raw)
}

// PriceImpact is (quoted - actual) / quoted at the route mid price. Nil when
// pool prices are unknown
func (t *Trade) PriceImpact() *big.Rat {
	mid := t.Route.MidPrice()
	if mid == nil || mid.Sign() == 0 {
		return nil
	}
	quoted := new(big.Rat).Mul(mid, new(big.Rat).SetInt(t.InputAmount.Raw))
	actual := new(big.Rat).SetInt(t.OutputAmount.Raw)
	impact := new(big.Rat).Sub(quoted, actual)
	return impact.Quo(impact, quoted)
}
