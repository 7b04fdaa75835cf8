package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
	"github.com/bimakw/swap-quoter/internal/logger"
	"github.com/bimakw/swap-quoter/internal/metrics"
)

// QuoteParams describes one best-trade computation. Amount is the fixed
// side (input for exact input, output for exact output) and Currency the
// other token
type QuoteParams struct {
	Account  common.Hash
	Pools    []entities.Pool
	Amount   *entities.TokenAmount
	Currency *entities.Token
}

// TradeResult is the outcome of a best-trade computation. Candidates are
// index-aligned with the enumerated routes
type TradeResult struct {
	State       entities.TradeState
	Trade       *entities.Trade
	Candidates  []Candidate
	BlockNumber uint64
}

// Err is nil for a valid trade, ErrNoRoute when no candidate produced one
// and ErrInvalidQuoteRequest for an invalid request
func (r *TradeResult) Err() error {
	switch r.State {
	case entities.TradeStateValid:
		return nil
	case entities.TradeStateNoRouteFound:
		return ErrNoRoute
	default:
		return ErrInvalidQuoteRequest
	}
}

// QuoteRequest is a quote addressed by tokens and optional pool addresses;
// the pool set is resolved by the pool service
type QuoteRequest struct {
	TradeType     entities.TradeType
	TokenIn       entities.Token
	TokenOut      entities.Token
	Amount        *big.Int
	Account       common.Hash
	PoolAddresses []common.Hash
}

// QuoteService computes the best trade over all routes by simulation
type QuoteService struct {
	enumerator     *RouteEnumerator
	encoder        *CallEncoder
	simulator      *BatchSimulator
	pools          *PoolService
	defaultAccount common.Hash
	log            zerolog.Logger
}

func NewQuoteService(enumerator *RouteEnumerator, encoder *CallEncoder, simulator *BatchSimulator, pools *PoolService, defaultAccount common.Hash) *QuoteService {
	return &QuoteService{
		enumerator:     enumerator,
		encoder:        encoder,
		simulator:      simulator,
		pools:          pools,
		defaultAccount: defaultAccount,
		log:            logger.For("quote_service"),
	}
}

// BestTradeExactIn finds the route with the largest output for a fixed input
func (s *QuoteService) BestTradeExactIn(ctx context.Context, params QuoteParams) (*TradeResult, error) {
	return s.bestTrade(ctx, entities.ExactInput, params)
}

// BestTradeExactOut finds the route needing the smallest input for a fixed output
func (s *QuoteService) BestTradeExactOut(ctx context.Context, params QuoteParams) (*TradeResult, error) {
	return s.bestTrade(ctx, entities.ExactOutput, params)
}

// Quote resolves the pool set for req and runs the matching best-trade search
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (*TradeResult, error) {
	pools, err := s.PoolSet(ctx, req.TokenIn, req.TokenOut, req.PoolAddresses)
	if err != nil {
		return nil, err
	}

	params := QuoteParams{Account: req.Account, Pools: pools}
	switch req.TradeType {
	case entities.ExactInput:
		if req.Amount != nil {
			amount := entities.NewTokenAmount(req.TokenIn, req.Amount)
			params.Amount = &amount
		}
		currency := req.TokenOut
		params.Currency = &currency
		return s.BestTradeExactIn(ctx, params)
	case entities.ExactOutput:
		if req.Amount != nil {
			amount := entities.NewTokenAmount(req.TokenOut, req.Amount)
			params.Amount = &amount
		}
		currency := req.TokenIn
		params.Currency = &currency
		return s.BestTradeExactOut(ctx, params)
	default:
		return nil, fmt.Errorf("%w: unsupported trade type %s", ErrInvalidQuoteRequest, req.TradeType)
	}
}

// PoolSet returns the pools a quote between tokenIn and tokenOut routes over
func (s *QuoteService) PoolSet(ctx context.Context, tokenIn, tokenOut entities.Token, addrs []common.Hash) ([]entities.Pool, error) {
	if s.pools == nil {
		return nil, nil
	}
	pools, err := s.pools.PoolSet(ctx, tokenIn, tokenOut, addrs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pool set: %w", err)
	}
	return pools, nil
}

// Routes enumerates candidate routes without simulating them
func (s *QuoteService) Routes(ctx context.Context, tokenIn, tokenOut entities.Token, addrs []common.Hash) ([]*entities.Route, error) {
	pools, err := s.PoolSet(ctx, tokenIn, tokenOut, addrs)
	if err != nil {
		return nil, err
	}
	return s.enumerator.Routes(tokenIn, tokenOut, pools)
}

// SwapCalls returns the approve and swap calls executing trade with the
// given slippage tolerance
func (s *QuoteService) SwapCalls(trade *entities.Trade, recipient common.Hash, slippageBps uint64) ([]starknet.Call, error) {
	return s.encoder.ExecutionCalls(trade, recipient, slippageBps)
}

func (s *QuoteService) bestTrade(ctx context.Context, tradeType entities.TradeType, params QuoteParams) (result *TradeResult, err error) {
	start := time.Now()
	defer func() {
		metrics.QuoteDuration.WithLabelValues(tradeType.String()).Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.QuoteRequests.WithLabelValues(tradeType.String(), result.State.String()).Inc()
		}
	}()

	account := params.Account
	if account == (common.Hash{}) {
		account = s.defaultAccount
	}
	if params.Amount == nil || params.Currency == nil || account == (common.Hash{}) || !params.Amount.IsPositive() {
		return &TradeResult{State: entities.TradeStateInvalid}, nil
	}

	var input, output entities.Token
	if tradeType == entities.ExactInput {
		input, output = params.Amount.Token, *params.Currency
	} else {
		input, output = *params.Currency, params.Amount.Token
	}

	routes, err := s.enumerator.Routes(input, output, params.Pools)
	if err != nil {
		return nil, err
	}
	metrics.RouteCandidates.Observe(float64(len(routes)))
	if len(routes) == 0 {
		return &TradeResult{State: entities.TradeStateNoRouteFound}, nil
	}

	// Routes that fail to encode keep their slot with the error
	encodeErrs := make([]error, len(routes))
	batchIndex := make([]int, 0, len(routes))
	batch := make([][]starknet.Call, 0, len(routes))
	for i, route := range routes {
		calls, err := s.encoder.QuoteCalls(route, tradeType, params.Amount.Raw, account)
		if err != nil {
			encodeErrs[i] = err
			continue
		}
		batchIndex = append(batchIndex, i)
		batch = append(batch, calls)
	}

	results := make([]SimulationResult, len(routes))
	for i, err := range encodeErrs {
		if err != nil {
			results[i] = SimulationResult{Err: err}
		}
	}

	var blockNumber uint64
	if len(batch) > 0 {
		sims, err := s.simulator.SimulateAll(ctx, account, batch)
		if err != nil {
			return nil, fmt.Errorf("simulation failed: %w", err)
		}
		blockNumber = sims.BlockNumber
		for j, i := range batchIndex {
			results[i] = sims.Results[j]
		}
	}

	candidates := BuildCandidates(routes, results)
	res := &TradeResult{
		State:       entities.TradeStateNoRouteFound,
		Candidates:  candidates,
		BlockNumber: blockNumber,
	}

	best, ok := SelectBest(tradeType, candidates)
	if !ok {
		s.log.Info().
			Str("trade_type", tradeType.String()).
			Str("pair", input.String()+"/"+output.String()).
			Int("routes", len(routes)).
			Msg("no route simulated successfully")
		return res, nil
	}

	winner := candidates[best]
	var inAmount, outAmount entities.TokenAmount
	if tradeType == entities.ExactInput {
		inAmount = *params.Amount
		outAmount = entities.NewTokenAmount(output, winner.Amount)
	} else {
		inAmount = entities.NewTokenAmount(input, winner.Amount)
		outAmount = *params.Amount
	}

	trade, err := entities.NewTrade(winner.Route, tradeType, inAmount, outAmount)
	if err != nil {
		return nil, err
	}
	trade.BlockNumber = blockNumber
	trade.FeeEstimate = winner.FeeEstimate

	res.State = entities.TradeStateValid
	res.Trade = trade

	s.log.Debug().
		Str("trade_type", tradeType.String()).
		Str("route", winner.Route.String()).
		Str("amount", winner.Amount.String()).
		Uint64("block", blockNumber).
		Msg("best trade selected")

	return res, nil
}
