package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/domain/services"
	"github.com/bimakw/swap-quoter/internal/infrastructure/dex"
)

const (
	DefaultRPCURL      = "https://starknet-mainnet.public.blastapi.io/rpc/v0_7"
	DefaultPort        = "8080"
	DefaultSlippageBps = 50
	maxSlippageBps     = 5000
)

// DefaultBaseTokens are the intermediate tokens multi-hop routes go through
var DefaultBaseTokens = []string{"ETH", "USDC", "USDT", "STRK"}

type Config struct {
	RPCURL        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Port          string

	RouterAddress  common.Hash
	FactoryAddress common.Hash
	// QuoterAccount simulates quotes when a request names no account
	QuoterAccount common.Hash

	TokensFile    string
	PoolAddresses []common.Hash
	BaseTokens    []string

	MaxHops               int
	SimulationConcurrency int
	SimulationTimeout     time.Duration
	DeadlineTTL           time.Duration
	PoolCacheTTL          time.Duration
	DefaultSlippageBps    uint64

	LogLevel  string
	LogFormat string
}

// Load reads .env when present, then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		RPCURL:        getEnv("STARKNET_RPC_URL", DefaultRPCURL),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		Port:          getEnv("PORT", DefaultPort),
		TokensFile:    getEnv("TOKENS_FILE", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		BaseTokens:    splitList(getEnv("BASE_TOKENS", strings.Join(DefaultBaseTokens, ","))),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RouterAddress, err = getAddress("ROUTER_ADDRESS", dex.JediSwapV2RouterAddress); err != nil {
		return nil, err
	}
	if cfg.FactoryAddress, err = getAddress("FACTORY_ADDRESS", dex.JediSwapV2FactoryAddress); err != nil {
		return nil, err
	}
	if cfg.QuoterAccount, err = getAddress("QUOTER_ACCOUNT", common.Hash{}); err != nil {
		return nil, err
	}
	for _, s := range splitList(getEnv("POOL_ADDRESSES", "")) {
		addr, err := entities.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("POOL_ADDRESSES: %w", err)
		}
		cfg.PoolAddresses = append(cfg.PoolAddresses, addr)
	}
	if cfg.MaxHops, err = getInt("MAX_HOPS", services.DefaultMaxHops); err != nil {
		return nil, err
	}
	if cfg.SimulationConcurrency, err = getInt("SIMULATION_CONCURRENCY", services.DefaultSimulationConcurrency); err != nil {
		return nil, err
	}
	if cfg.SimulationTimeout, err = getDuration("SIMULATION_TIMEOUT", services.DefaultSimulationTimeout); err != nil {
		return nil, err
	}
	if cfg.DeadlineTTL, err = getDuration("DEADLINE_TTL", services.DefaultDeadlineTTL); err != nil {
		return nil, err
	}
	if cfg.PoolCacheTTL, err = getDuration("POOL_CACHE_TTL", services.DefaultPoolCacheTTL); err != nil {
		return nil, err
	}
	slippage, err := getInt("DEFAULT_SLIPPAGE_BPS", DefaultSlippageBps)
	if err != nil {
		return nil, err
	}
	if slippage < 0 {
		return nil, fmt.Errorf("DEFAULT_SLIPPAGE_BPS: must not be negative")
	}
	cfg.DefaultSlippageBps = uint64(slippage)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("invalid config: STARKNET_RPC_URL is required")
	}
	if c.MaxHops < 1 || c.MaxHops > services.MaxRouteHops {
		return fmt.Errorf("invalid config: MAX_HOPS must be between 1 and %d", services.MaxRouteHops)
	}
	if c.SimulationConcurrency < 1 {
		return errors.New("invalid config: SIMULATION_CONCURRENCY must be positive")
	}
	if c.SimulationTimeout <= 0 || c.DeadlineTTL <= 0 || c.PoolCacheTTL <= 0 {
		return errors.New("invalid config: durations must be positive")
	}
	if c.DefaultSlippageBps > maxSlippageBps {
		return fmt.Errorf("invalid config: DEFAULT_SLIPPAGE_BPS above %d", maxSlippageBps)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// getDuration accepts Go durations ("10s") or plain seconds
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getAddress(key string, defaultValue common.Hash) (common.Hash, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	addr, err := entities.ParseAddress(v)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: %w", key, err)
	}
	return addr, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
