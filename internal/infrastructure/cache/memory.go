package cache

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
)

// DefaultMemoryCacheSize bounds the in-process cache
const DefaultMemoryCacheSize = 4096

// MemoryCache implements Cache with a bounded in-process LRU
type MemoryCache struct {
	entries *lru.Cache
	now     func() time.Time
}

type memoryEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory cache holding at most size entries
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{entries: entries, now: time.Now}, nil
}

func (c *MemoryCache) GetPool(ctx context.Context, key string) (*entities.Pool, error) {
	v, ok := c.get(key)
	if !ok {
		return nil, nil
	}
	pool, _ := v.(entities.Pool)
	return &pool, nil
}

func (c *MemoryCache) SetPool(ctx context.Context, key string, pool *entities.Pool, ttl time.Duration) error {
	c.set(key, *pool, ttl)
	return nil
}

func (c *MemoryCache) GetPoolAddresses(ctx context.Context, key string) ([]common.Hash, error) {
	v, ok := c.get(key)
	if !ok {
		return nil, nil
	}
	addrs, _ := v.([]common.Hash)
	return append([]common.Hash{}, addrs...), nil
}

func (c *MemoryCache) SetPoolAddresses(ctx context.Context, key string, addrs []common.Hash, ttl time.Duration) error {
	c.set(key, append([]common.Hash{}, addrs...), ttl)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Len reports the number of live and not yet evicted entries
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

func (c *MemoryCache) get(key string) (interface{}, bool) {
	raw, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	entry := raw.(memoryEntry)
	if !c.now().Before(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) set(key string, value interface{}, ttl time.Duration) {
	c.entries.Add(key, memoryEntry{value: value, expiresAt: c.now().Add(ttl)})
}
