package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
)

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an already configured client
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetPool retrieves a cached pool snapshot
func (c *RedisCache) GetPool(ctx context.Context, key string) (*entities.Pool, error) {
	data, err := c.getBytes(ctx, key)
	if err != nil || data == nil {
		return nil, err
	}

	var pool entities.Pool
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, err
	}

	return &pool, nil
}

// SetPool caches a pool snapshot with TTL
func (c *RedisCache) SetPool(ctx context.Context, key string, pool *entities.Pool, ttl time.Duration) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetPoolAddresses retrieves cached pool addresses for a pair
func (c *RedisCache) GetPoolAddresses(ctx context.Context, key string) ([]common.Hash, error) {
	data, err := c.getBytes(ctx, key)
	if err != nil || data == nil {
		return nil, err
	}

	addrs := []common.Hash{}
	if err := json.Unmarshal(data, &addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

// SetPoolAddresses caches pool addresses for a pair with TTL
func (c *RedisCache) SetPoolAddresses(ctx context.Context, key string, addrs []common.Hash, ttl time.Duration) error {
	if addrs == nil {
		addrs = []common.Hash{}
	}
	data, err := json.Marshal(addrs)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a key from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) getBytes(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}
	return data, nil
}
