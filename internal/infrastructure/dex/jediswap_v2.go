package dex

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

// JediSwap v2 contract addresses (Starknet mainnet)
var (
	JediSwapV2FactoryAddress = entities.MustParseAddress("0x01aa950c9b974294787de8df8880ecf668840a6ab8fa8290bf2952212b375148")
	JediSwapV2RouterAddress  = entities.MustParseAddress("0x0359550b990167afd6635fa574f3bdadd83cb51850e1d00061fe693158c23f80")
)

// Pool and factory entry points
const (
	getPoolEntryPoint      = "get_pool"
	getToken0EntryPoint    = "get_token0"
	getToken1EntryPoint    = "get_token1"
	getFeeEntryPoint       = "get_fee"
	getLiquidityEntryPoint = "get_liquidity"
	getSqrtPriceEntryPoint = "get_sqrt_price_X96"
)

// JediSwapV2Client reads pools from the JediSwap v2 factory and pool contracts
type JediSwapV2Client struct {
	caller  ContractCaller
	factory *starknet.Felt
	tokens  TokenResolver
	now     func() time.Time
}

func NewJediSwapV2Client(caller ContractCaller, factory common.Hash, tokens TokenResolver) (*JediSwapV2Client, error) {
	factoryFelt, err := starknet.FeltFromHash(factory)
	if err != nil {
		return nil, fmt.Errorf("invalid factory address: %w", err)
	}
	return &JediSwapV2Client{
		caller:  caller,
		factory: factoryFelt,
		tokens:  tokens,
		now:     time.Now,
	}, nil
}

// GetPoolAddress calls factory.get_pool for one fee tier. A zero address
// means no pool is deployed
func (c *JediSwapV2Client) GetPoolAddress(ctx context.Context, tokenA, tokenB common.Hash, fee uint32) (common.Hash, error) {
	a, err := starknet.FeltFromHash(tokenA)
	if err != nil {
		return common.Hash{}, err
	}
	b, err := starknet.FeltFromHash(tokenB)
	if err != nil {
		return common.Hash{}, err
	}

	result, err := c.caller.CallContract(ctx, c.factory, getPoolEntryPoint, []*starknet.Felt{a, b, starknet.FeltFromUint64(uint64(fee))})
	if err != nil {
		return common.Hash{}, fmt.Errorf("get_pool failed: %w", err)
	}
	if len(result) < 1 {
		return common.Hash{}, fmt.Errorf("invalid get_pool response length")
	}

	return result[0].Hash(), nil
}

// Pool reads issued by GetPool, in multicall order
var poolReads = []string{
	getToken0EntryPoint,
	getToken1EntryPoint,
	getFeeEntryPoint,
	getLiquidityEntryPoint,
	getSqrtPriceEntryPoint,
}

const (
	readToken0 = iota
	readToken1
	readFee
	readLiquidity
	readSqrtPrice
)

// GetPool reads a pool snapshot in one multicall pinned to the latest block
// number. Token and fee reads are required; liquidity and price are best
// effort
func (c *JediSwapV2Client) GetPool(ctx context.Context, address common.Hash) (*entities.Pool, error) {
	poolFelt, err := starknet.FeltFromHash(address)
	if err != nil {
		return nil, err
	}

	block, err := c.caller.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool %s: %w", entities.ShortAddress(address), err)
	}

	calls := make([]starknet.FunctionCall, len(poolReads))
	for i, entryPoint := range poolReads {
		calls[i] = starknet.FunctionCall{
			ContractAddress:    poolFelt,
			EntryPointSelector: starknet.Selector(entryPoint),
		}
	}
	results, errs := c.caller.Multicall(ctx, calls, starknet.BlockNumber(block))

	for _, i := range []int{readToken0, readToken1, readFee} {
		if errs[i] != nil {
			return nil, fmt.Errorf("failed to read pool %s: %s: %w", entities.ShortAddress(address), poolReads[i], errs[i])
		}
		if len(results[i]) < 1 {
			return nil, fmt.Errorf("failed to read pool %s: %s: empty response", entities.ShortAddress(address), poolReads[i])
		}
	}

	feeFelt := results[readFee][0]
	if !feeFelt.Big().IsUint64() || feeFelt.Uint64() > uint64(^uint32(0)) {
		return nil, fmt.Errorf("failed to read pool %s: fee %s out of range", entities.ShortAddress(address), feeFelt.String())
	}

	pool := entities.NewPool(
		address,
		c.tokens.Resolve(results[readToken0][0].Hash()),
		c.tokens.Resolve(results[readToken1][0].Hash()),
		uint32(feeFelt.Uint64()),
	)
	if errs[readLiquidity] == nil && len(results[readLiquidity]) > 0 {
		pool.Liquidity = results[readLiquidity][0].Big()
	}
	if errs[readSqrtPrice] == nil {
		res := results[readSqrtPrice]
		switch len(res) {
		case 1:
			pool.SqrtPriceX96 = res[0].Big()
		case 2:
			if v, err := starknet.JoinUint256(res[0], res[1]); err == nil {
				pool.SqrtPriceX96 = v
			}
		}
	}
	pool.UpdatedAt = c.now().Unix()

	if err := pool.Validate(); err != nil {
		return nil, err
	}
	return &pool, nil
}

// FindPools queries every fee tier concurrently and returns the deployed
// pools in fee tier order
func (c *JediSwapV2Client) FindPools(ctx context.Context, tokenA, tokenB entities.Token) ([]entities.Pool, error) {
	if tokenA.Equals(tokenB) {
		return nil, fmt.Errorf("identical tokens %s", tokenA)
	}
	token0, token1 := sortTokens(tokenA, tokenB)

	found := make([]*entities.Pool, len(entities.FeeTiers))
	errs := make([]error, len(entities.FeeTiers))

	g, gctx := errgroup.WithContext(ctx)
	for i, fee := range entities.FeeTiers {
		i, fee := i, fee
		g.Go(func() error {
			addr, err := c.GetPoolAddress(gctx, token0.Address, token1.Address, fee)
			if err != nil {
				errs[i] = err
				return nil
			}
			if addr == (common.Hash{}) {
				return nil
			}
			pool, err := c.GetPool(gctx, addr)
			if err != nil {
				errs[i] = err
				return nil
			}
			// Keep the caller's token metadata
			pool.Token0, pool.Token1 = token0, token1
			found[i] = pool
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pools := make([]entities.Pool, 0, len(found))
	var firstErr error
	for i, p := range found {
		if p != nil {
			pools = append(pools, *p)
		} else if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
	}

	if len(pools) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return pools, nil
}

// sortTokens orders two tokens by address (pool token0/token1 convention)
func sortTokens(tokenA, tokenB entities.Token) (entities.Token, entities.Token) {
	if tokenA.SortsBefore(tokenB) {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}
