package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/infrastructure/cache"
	"github.com/bimakw/swap-quoter/internal/infrastructure/dex"
	"github.com/bimakw/swap-quoter/internal/logger"
	"github.com/bimakw/swap-quoter/internal/metrics"
)

const (
	DefaultPoolCacheTTL = 30 * time.Second
	poolFetchLimit      = 16
)

// PoolService loads pool snapshots and builds the pool set a quote routes over
type PoolService struct {
	source      dex.PoolSource
	cache       cache.Cache
	cacheTTL    time.Duration
	staticPools []common.Hash
	baseTokens  []entities.Token
	log         zerolog.Logger
}

func NewPoolService(source dex.PoolSource, c cache.Cache, cacheTTL time.Duration) *PoolService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultPoolCacheTTL
	}
	return &PoolService{
		source:   source,
		cache:    c,
		cacheTTL: cacheTTL,
		log:      logger.For("pool_service"),
	}
}

// WithStaticPools adds pools that are part of every default pool set
func (s *PoolService) WithStaticPools(addrs []common.Hash) *PoolService {
	s.staticPools = append([]common.Hash(nil), addrs...)
	return s
}

// WithBaseTokens sets the intermediate tokens used for pool discovery
func (s *PoolService) WithBaseTokens(tokens []entities.Token) *PoolService {
	s.baseTokens = append([]entities.Token(nil), tokens...)
	return s
}

func (s *PoolService) BaseTokens() []entities.Token {
	return append([]entities.Token(nil), s.baseTokens...)
}

// GetPool returns a pool snapshot, from cache when fresh
func (s *PoolService) GetPool(ctx context.Context, addr common.Hash) (*entities.Pool, error) {
	key := cache.PoolCacheKey(addr)
	if s.cache != nil {
		if cached, err := s.cache.GetPool(ctx, key); err == nil && cached != nil {
			metrics.PoolCacheHits.Inc()
			return cached, nil
		}
	}
	metrics.PoolCacheMisses.Inc()

	pool, err := s.source.GetPool(ctx, addr)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPool(ctx, key, pool, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("pool", entities.ShortAddress(addr)).Msg("failed to cache pool")
		}
	}
	return pool, nil
}

// GetPools loads pools concurrently and returns those that loaded, in
// input order. It fails only when every pool failed
func (s *PoolService) GetPools(ctx context.Context, addrs []common.Hash) ([]entities.Pool, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	loaded := make([]*entities.Pool, len(addrs))
	errs := make([]error, len(addrs))

	var g errgroup.Group
	g.SetLimit(poolFetchLimit)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			loaded[i], errs[i] = s.GetPool(ctx, addr)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pools := make([]entities.Pool, 0, len(addrs))
	var firstErr error
	for i, p := range loaded {
		if p != nil {
			pools = append(pools, *p)
			continue
		}
		if errs[i] != nil {
			s.log.Warn().Err(errs[i]).Str("pool", entities.ShortAddress(addrs[i])).Msg("failed to load pool")
			if firstErr == nil {
				firstErr = errs[i]
			}
		}
	}

	if len(pools) == 0 && firstErr != nil {
		return nil, fmt.Errorf("failed to load pools: %w", firstErr)
	}
	return pools, nil
}

// PairPools returns the pools deployed for one pair across fee tiers
func (s *PoolService) PairPools(ctx context.Context, tokenA, tokenB entities.Token) ([]entities.Pool, error) {
	token0, token1 := tokenA, tokenB
	if tokenB.SortsBefore(tokenA) {
		token0, token1 = tokenB, tokenA
	}
	key := cache.PairPoolsCacheKey(token0.Address, token1.Address)

	if s.cache != nil {
		if addrs, err := s.cache.GetPoolAddresses(ctx, key); err == nil && addrs != nil {
			metrics.PoolCacheHits.Inc()
			pools, err := s.GetPools(ctx, addrs)
			if err != nil {
				return nil, err
			}
			return withPairTokens(pools, token0, token1), nil
		}
	}
	metrics.PoolCacheMisses.Inc()

	pools, err := s.source.FindPools(ctx, token0, token1)
	if err != nil {
		return nil, fmt.Errorf("failed to find pools for %s/%s: %w", token0, token1, err)
	}

	if s.cache != nil {
		addrs := make([]common.Hash, len(pools))
		for i := range pools {
			addrs[i] = pools[i].Address
			_ = s.cache.SetPool(ctx, cache.PoolCacheKey(pools[i].Address), &pools[i], s.cacheTTL)
		}
		if err := s.cache.SetPoolAddresses(ctx, key, addrs, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to cache pair pools")
		}
	}
	return pools, nil
}

// withPairTokens applies the caller's token metadata to pools of the pair,
// matching what FindPools returns
func withPairTokens(pools []entities.Pool, token0, token1 entities.Token) []entities.Pool {
	for i := range pools {
		if pools[i].Token0.Equals(token0) && pools[i].Token1.Equals(token1) {
			pools[i].Token0, pools[i].Token1 = token0, token1
		}
	}
	return pools
}

// DiscoverPools finds pools for the pair itself and for every pair through
// the base tokens, so multi-hop routes exist
func (s *PoolService) DiscoverPools(ctx context.Context, tokenIn, tokenOut entities.Token) ([]entities.Pool, error) {
	pairs := discoveryPairs(tokenIn, tokenOut, s.baseTokens)
	found := make([][]entities.Pool, len(pairs))
	errs := make([]error, len(pairs))

	var g errgroup.Group
	g.SetLimit(poolFetchLimit)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			found[i], errs[i] = s.PairPools(ctx, pair[0], pair[1])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		pools    []entities.Pool
		firstErr error
	)
	for i := range pairs {
		if errs[i] != nil {
			s.log.Debug().Err(errs[i]).
				Str("pair", pairs[i][0].String()+"/"+pairs[i][1].String()).
				Msg("pool discovery failed")
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		pools = append(pools, found[i]...)
	}

	if len(pools) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return dedupePools(pools), nil
}

// PoolSet is the pool set for a quote. An explicit list wins; otherwise the
// static pools plus discovered pools are used
func (s *PoolService) PoolSet(ctx context.Context, tokenIn, tokenOut entities.Token, explicit []common.Hash) ([]entities.Pool, error) {
	if len(explicit) > 0 {
		return s.GetPools(ctx, explicit)
	}

	static, err := s.GetPools(ctx, s.staticPools)
	if err != nil {
		s.log.Warn().Err(err).Msg("static pools unavailable")
	}
	discovered, err := s.DiscoverPools(ctx, tokenIn, tokenOut)
	if err != nil {
		if len(static) == 0 {
			return nil, err
		}
		s.log.Warn().Err(err).Msg("pool discovery failed, using static pools")
	}
	return dedupePools(append(static, discovered...)), nil
}

// discoveryPairs lists (in, out), (in, base), (base, out) and (base, base)
// without duplicates or identical tokens
func discoveryPairs(tokenIn, tokenOut entities.Token, bases []entities.Token) [][2]entities.Token {
	var pairs [][2]entities.Token
	seen := make(map[[2]common.Hash]struct{})
	add := func(a, b entities.Token) {
		if a.Equals(b) {
			return
		}
		key := [2]common.Hash{a.Address, b.Address}
		if b.SortsBefore(a) {
			key = [2]common.Hash{b.Address, a.Address}
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		pairs = append(pairs, [2]entities.Token{a, b})
	}

	add(tokenIn, tokenOut)
	for _, base := range bases {
		add(tokenIn, base)
		add(base, tokenOut)
	}
	for i, a := range bases {
		for _, b := range bases[i+1:] {
			add(a, b)
		}
	}
	return pairs
}

func dedupePools(pools []entities.Pool) []entities.Pool {
	seen := make(map[common.Hash]struct{}, len(pools))
	out := make([]entities.Pool, 0, len(pools))
	for _, p := range pools {
		if _, ok := seen[p.Address]; ok {
			continue
		}
		seen[p.Address] = struct{}{}
		out = append(out, p)
	}
	return out
}
