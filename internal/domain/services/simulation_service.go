package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
	"github.com/bimakw/swap-quoter/internal/logger"
	"github.com/bimakw/swap-quoter/internal/metrics"
)

const (
	DefaultSimulationConcurrency = 8
	DefaultSimulationTimeout     = 10 * time.Second
)

var simulationFlags = []starknet.SimulationFlag{starknet.SkipValidate, starknet.SkipFeeCharge}

// TransactionSimulator is the node surface the batch simulator needs
type TransactionSimulator interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Nonce(ctx context.Context, block starknet.BlockID, address *starknet.Felt) (*starknet.Felt, error)
	SimulateTransactions(ctx context.Context, block starknet.BlockID, txs []starknet.InvokeTransaction, flags []starknet.SimulationFlag) ([]starknet.SimulatedTransaction, error)
}

// SimulationResult is the outcome of one candidate. Output holds the
// account __execute__ return data when Err is nil
type SimulationResult struct {
	Output      []*starknet.Felt
	FeeEstimate *big.Int
	Err         error
	Duration    time.Duration
}

// BatchResult holds one result per candidate, in candidate order
type BatchResult struct {
	BlockNumber uint64
	Results     []SimulationResult
}

// BatchSimulator simulates candidate call lists concurrently against one
// pinned block
type BatchSimulator struct {
	node        TransactionSimulator
	concurrency int
	timeout     time.Duration
	log         zerolog.Logger
}

func NewBatchSimulator(node TransactionSimulator, concurrency int, timeout time.Duration) *BatchSimulator {
	if concurrency <= 0 {
		concurrency = DefaultSimulationConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultSimulationTimeout
	}
	return &BatchSimulator{
		node:        node,
		concurrency: concurrency,
		timeout:     timeout,
		log:         logger.For("batch_simulator"),
	}
}

// SimulateAll runs every candidate as an INVOKE from account. Per-candidate
// failures are recorded in the matching result slot. An error is returned
// only when the block or nonce cannot be fetched or ctx is done
func (s *BatchSimulator) SimulateAll(ctx context.Context, account common.Hash, candidates [][]starknet.Call) (*BatchResult, error) {
	sender, err := starknet.FeltFromHash(account)
	if err != nil {
		return nil, fmt.Errorf("invalid account: %w", err)
	}

	blockNumber, err := s.node.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get block number: %w", err)
	}
	block := starknet.BlockNumber(blockNumber)

	nonce, err := s.node.Nonce(ctx, block, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce for %s: %w", sender, err)
	}

	batch := &BatchResult{
		BlockNumber: blockNumber,
		Results:     make([]SimulationResult, len(candidates)),
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, calls := range candidates {
		i, calls := i, calls
		g.Go(func() error {
			if ctx.Err() != nil {
				batch.Results[i] = SimulationResult{Err: ctx.Err()}
				return nil
			}
			batch.Results[i] = s.simulateOne(ctx, block, starknet.NewInvokeV1(sender, calls, nonce))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.log.Debug().
		Uint64("block", blockNumber).
		Int("candidates", len(candidates)).
		Msg("batch simulated")

	return batch, nil
}

func (s *BatchSimulator) simulateOne(ctx context.Context, block starknet.BlockID, tx starknet.InvokeTransaction) SimulationResult {
	start := time.Now()
	simCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := s.evaluate(simCtx, block, tx)
	res.Duration = time.Since(start)

	metrics.SimulationDuration.Observe(res.Duration.Seconds())
	metrics.Simulations.WithLabelValues(outcome(res.Err)).Inc()
	return res
}

func (s *BatchSimulator) evaluate(ctx context.Context, block starknet.BlockID, tx starknet.InvokeTransaction) SimulationResult {
	sims, err := s.node.SimulateTransactions(ctx, block, []starknet.InvokeTransaction{tx}, simulationFlags)
	if err != nil {
		return SimulationResult{Err: err}
	}
	if len(sims) != 1 {
		return SimulationResult{Err: fmt.Errorf("%w: %d traces for 1 transaction", ErrMalformedTrace, len(sims))}
	}

	sim := sims[0]
	inv := sim.TransactionTrace.ExecuteInvocation
	if inv == nil {
		return SimulationResult{Err: fmt.Errorf("%w: missing execute invocation", ErrMalformedTrace)}
	}
	if inv.Reverted() {
		return SimulationResult{Err: &RevertError{Reason: inv.RevertReason}}
	}

	var fee *big.Int
	if sim.FeeEstimation.OverallFee != nil {
		fee = sim.FeeEstimation.OverallFee.Big()
	}
	return SimulationResult{Output: inv.Result, FeeEstimate: fee}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrTransactionReverted):
		return metrics.OutcomeReverted
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}
