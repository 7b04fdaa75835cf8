package services

import (
	"fmt"
	"math/big"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

// DecodeSwapAmount extracts the swap's u256 return value from the account
// __execute__ result. The swap is the last call. A result that does not
// decode as Array<Span<felt>> falls back to its last two felts
func DecodeSwapAmount(output []*starknet.Felt) (*big.Int, error) {
	if spans, err := starknet.DecodeExecuteResult(output); err == nil && len(spans) > 0 {
		last := spans[len(spans)-1]
		if len(last) >= 2 {
			return starknet.JoinUint256(last[0], last[1])
		}
		return nil, fmt.Errorf("%w: swap returned %d felts", ErrMalformedTrace, len(last))
	}
	if len(output) < 2 {
		return nil, fmt.Errorf("%w: result has %d felts", ErrMalformedTrace, len(output))
	}
	return starknet.JoinUint256(output[len(output)-2], output[len(output)-1])
}

// Candidate is one route with its simulated amount or failure
type Candidate struct {
	Route       *entities.Route
	Amount      *big.Int
	FeeEstimate *big.Int
	Err         error
}

func (c Candidate) OK() bool {
	return c.Err == nil && c.Amount != nil && c.Amount.Sign() > 0
}

// BuildCandidates pairs routes with their simulation results by index
func BuildCandidates(routes []*entities.Route, results []SimulationResult) []Candidate {
	candidates := make([]Candidate, len(routes))
	for i, route := range routes {
		candidates[i] = Candidate{Route: route}
		if i >= len(results) {
			candidates[i].Err = fmt.Errorf("%w: no simulation result", ErrMalformedTrace)
			continue
		}
		res := results[i]
		if res.Err != nil {
			candidates[i].Err = res.Err
			continue
		}
		amount, err := DecodeSwapAmount(res.Output)
		if err != nil {
			candidates[i].Err = err
			continue
		}
		if amount.Sign() == 0 {
			candidates[i].Err = ErrZeroAmount
		}
		candidates[i].Amount = amount
		candidates[i].FeeEstimate = res.FeeEstimate
	}
	return candidates
}

// SelectBest returns the index of the best candidate: the largest output for
// exact input, the smallest input for exact output. Ties keep the earlier
// candidate. ok is false when no candidate succeeded
func SelectBest(tradeType entities.TradeType, candidates []Candidate) (best int, ok bool) {
	best = -1
	for i, c := range candidates {
		if !c.OK() {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		cmp := c.Amount.Cmp(candidates[best].Amount)
		if (tradeType == entities.ExactInput && cmp > 0) || (tradeType == entities.ExactOutput && cmp < 0) {
			best = i
		}
	}
	return best, best >= 0
}
