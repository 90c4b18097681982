package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// RedisSnapshotCache implements SnapshotCache on Redis. Suitable for
// multi-instance deployments where the replayed ledger snapshot should be
// shared between nodes.
type RedisSnapshotCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSnapshotCache connects to Redis and verifies the connection.
func NewRedisSnapshotCache(cfg RedisConfig) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSnapshotCache{client: client, keyPrefix: "snapshot:"}, nil
}

// NewRedisSnapshotCacheWithClient wraps an existing client. Useful for
// testing or when sharing a client across components.
func NewRedisSnapshotCacheWithClient(client *redis.Client, keyPrefix string) *RedisSnapshotCache {
	if keyPrefix == "" {
		keyPrefix = "snapshot:"
	}
	return &RedisSnapshotCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached value for key.
func (c *RedisSnapshotCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return value, true, nil
}

// Set stores value under key for ttl.
func (c *RedisSnapshotCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Invalidate removes key.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

var _ shared.SnapshotCache = (*RedisSnapshotCache)(nil)
