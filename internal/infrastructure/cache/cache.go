package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
)

// Cache defines the interface for caching pool snapshots and pool discovery
// results. Misses return nil values with a nil error
type Cache interface {
	GetPool(ctx context.Context, key string) (*entities.Pool, error)
	SetPool(ctx context.Context, key string, pool *entities.Pool, ttl time.Duration) error
	GetPoolAddresses(ctx context.Context, key string) ([]common.Hash, error)
	SetPoolAddresses(ctx context.Context, key string, addrs []common.Hash, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PoolCacheKey generates a cache key for a pool snapshot
func PoolCacheKey(pool common.Hash) string {
	return fmt.Sprintf("pool:%s", entities.ShortAddress(pool))
}

// PairPoolsCacheKey generates a cache key for the pools deployed for a pair
func PairPoolsCacheKey(token0, token1 common.Hash) string {
	return fmt.Sprintf("pools:%s:%s", entities.ShortAddress(token0), entities.ShortAddress(token1))
}
