package services

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/infrastructure/dex"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

const DefaultDeadlineTTL = 30 * time.Minute

// SimulationBound is the open slippage bound used while quoting: the
// approval amount and the exact-output input ceiling
var SimulationBound = new(big.Int).Lsh(big.NewInt(1), 128)

// CallEncoder turns routes into router calls
type CallEncoder struct {
	router      *dex.Router
	deadlineTTL time.Duration
	now         func() time.Time
}

func NewCallEncoder(router *dex.Router, deadlineTTL time.Duration) *CallEncoder {
	if deadlineTTL <= 0 {
		deadlineTTL = DefaultDeadlineTTL
	}
	return &CallEncoder{
		router:      router,
		deadlineTTL: deadlineTTL,
		now:         time.Now,
	}
}

func (e *CallEncoder) Router() common.Hash {
	return e.router.Address()
}

// Deadline is now + TTL in unix seconds
func (e *CallEncoder) Deadline() uint64 {
	return uint64(e.now().Add(e.deadlineTTL).Unix())
}

// ApproveCall approves the router to pull amount of token
func (e *CallEncoder) ApproveCall(token entities.Token, amount *big.Int) (starknet.Call, error) {
	return dex.Approve(token.Address, e.router.Address(), amount)
}

// SwapCall encodes a swap along route. For exact input amount is the input
// and limit the minimum output; for exact output amount is the output and
// limit the maximum input
func (e *CallEncoder) SwapCall(route *entities.Route, tradeType entities.TradeType, amount, limit *big.Int, recipient common.Hash) (starknet.Call, error) {
	if route == nil || route.Hops() == 0 {
		return starknet.Call{}, fmt.Errorf("%w: empty route", entities.ErrInvalidRoute)
	}
	deadline := e.Deadline()
	path := pathHops(route)

	switch tradeType {
	case entities.ExactInput:
		if route.IsSingleHop() {
			return e.router.ExactInputSingle(dex.ExactInputSingleParams{
				TokenIn:          path[0].TokenIn,
				TokenOut:         path[0].TokenOut,
				Fee:              path[0].Fee,
				Recipient:        recipient,
				Deadline:         deadline,
				AmountIn:         amount,
				AmountOutMinimum: limit,
			})
		}
		return e.router.ExactInput(dex.ExactInputParams{
			Path:             path,
			Recipient:        recipient,
			Deadline:         deadline,
			AmountIn:         amount,
			AmountOutMinimum: limit,
		})
	case entities.ExactOutput:
		if route.IsSingleHop() {
			return e.router.ExactOutputSingle(dex.ExactOutputSingleParams{
				TokenIn:         path[0].TokenIn,
				TokenOut:        path[0].TokenOut,
				Fee:             path[0].Fee,
				Recipient:       recipient,
				Deadline:        deadline,
				AmountOut:       amount,
				AmountInMaximum: limit,
			})
		}
		return e.router.ExactOutput(dex.ExactOutputParams{
			Path:            path,
			Recipient:       recipient,
			Deadline:        deadline,
			AmountOut:       amount,
			AmountInMaximum: limit,
		})
	default:
		return starknet.Call{}, fmt.Errorf("unsupported trade type %s", tradeType)
	}
}

// QuoteCalls builds the [approve, swap] pair simulated for one candidate.
// Bounds are open: minimum output 0, maximum input and approval 2^128
func (e *CallEncoder) QuoteCalls(route *entities.Route, tradeType entities.TradeType, amount *big.Int, account common.Hash) ([]starknet.Call, error) {
	limit := new(big.Int)
	if tradeType == entities.ExactOutput {
		limit = SimulationBound
	}

	approve, err := e.ApproveCall(route.Input, SimulationBound)
	if err != nil {
		return nil, err
	}
	swap, err := e.SwapCall(route, tradeType, amount, limit, account)
	if err != nil {
		return nil, err
	}
	return []starknet.Call{approve, swap}, nil
}

// ExecutionCalls builds the [approve, swap] pair for submitting trade with
// slippage-bounded amounts
func (e *CallEncoder) ExecutionCalls(trade *entities.Trade, recipient common.Hash, slippageBps uint64) ([]starknet.Call, error) {
	if trade == nil {
		return nil, fmt.Errorf("%w: nil trade", entities.ErrInvalidTrade)
	}

	var amount, limit, approveAmount *big.Int
	switch trade.TradeType {
	case entities.ExactInput:
		amount = trade.InputAmount.Raw
		limit = trade.MinimumAmountOut(slippageBps)
		approveAmount = amount
	case entities.ExactOutput:
		amount = trade.OutputAmount.Raw
		limit = trade.MaximumAmountIn(slippageBps)
		approveAmount = limit
	default:
		return nil, fmt.Errorf("unsupported trade type %s", trade.TradeType)
	}

	approve, err := e.ApproveCall(trade.Route.Input, approveAmount)
	if err != nil {
		return nil, err
	}
	swap, err := e.SwapCall(trade.Route, trade.TradeType, amount, limit, recipient)
	if err != nil {
		return nil, err
	}
	return []starknet.Call{approve, swap}, nil
}

// pathHops lists the route's hops in route order
func pathHops(route *entities.Route) []dex.PathHop {
	tokens := route.TokenPath()
	hops := make([]dex.PathHop, route.Hops())
	for i, pool := range route.Pools {
		hops[i] = dex.PathHop{
			TokenIn:  tokens[i].Address,
			TokenOut: tokens[i+1].Address,
			Fee:      pool.Fee,
		}
	}
	return hops
}
