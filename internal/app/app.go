package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bimakw/swap-quoter/internal/config"
	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/domain/services"
	"github.com/bimakw/swap-quoter/internal/infrastructure/cache"
	"github.com/bimakw/swap-quoter/internal/infrastructure/dex"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

// App wires the node client, caches and services from a Config
type App struct {
	Config *config.Config
	Node   *starknet.Client
	Tokens *entities.TokenRegistry
	Cache  cache.Cache
	Pools  *services.PoolService
	Quotes *services.QuoteService

	closers []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	node, err := starknet.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Starknet: %w", err)
	}
	a.Node = node
	a.closers = append(a.closers, node.Close)
	log.Info().Str("chain_id", node.ChainID().ShortString()).Msg("connected to Starknet")

	a.Tokens = loadTokens(cfg.TokensFile)

	c, err := newCache(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cache = c
	if rc, ok := c.(*cache.RedisCache); ok {
		a.closers = append(a.closers, func() { _ = rc.Close() })
	}

	jedi, err := dex.NewJediSwapV2Client(node, cfg.FactoryAddress, a.Tokens)
	if err != nil {
		a.Close()
		return nil, err
	}
	router, err := dex.NewRouter(cfg.RouterAddress)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Pools = services.NewPoolService(jedi, a.Cache, cfg.PoolCacheTTL).
		WithStaticPools(cfg.PoolAddresses).
		WithBaseTokens(resolveBaseTokens(a.Tokens, cfg.BaseTokens))

	enumerator, err := services.NewRouteEnumerator(cfg.MaxHops, services.DefaultRouteMemoSize)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Quotes = services.NewQuoteService(
		enumerator,
		services.NewCallEncoder(router, cfg.DeadlineTTL),
		services.NewBatchSimulator(node, cfg.SimulationConcurrency, cfg.SimulationTimeout),
		a.Pools,
		cfg.QuoterAccount,
	)

	return a, nil
}

// Close releases connections in reverse order of creation
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func loadTokens(path string) *entities.TokenRegistry {
	if path == "" {
		return entities.DefaultRegistry()
	}
	reg := entities.NewTokenRegistry()
	if err := reg.LoadFromFile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to load tokens, using defaults")
		return entities.DefaultRegistry()
	}
	log.Info().Int("count", reg.Count()).Str("path", path).Msg("tokens loaded")
	return reg
}

func newCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
			return redisCache, nil
		}
		log.Warn().Err(err).Msg("failed to connect to Redis, using in-memory cache")
	}

	memCache, err := cache.NewMemoryCache(cache.DefaultMemoryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	log.Info().Msg("using in-memory cache")
	return memCache, nil
}

func resolveBaseTokens(reg *entities.TokenRegistry, refs []string) []entities.Token {
	tokens := make([]entities.Token, 0, len(refs))
	for _, ref := range refs {
		token, err := reg.Lookup(ref)
		if err != nil {
			log.Warn().Err(err).Str("token", ref).Msg("skipping base token")
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
