package cache

import (
	"fmt"

	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/goldshop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SnapshotCacheFactory creates snapshot caches based on configuration
type SnapshotCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SnapshotCacheFactoryOption is a functional option for configuring the factory
type SnapshotCacheFactoryOption func(*SnapshotCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SnapshotCacheFactoryOption {
	return func(f *SnapshotCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SnapshotCacheFactoryOption {
	return func(f *SnapshotCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSnapshotCacheFactory creates a new factory
func NewSnapshotCacheFactory(cfg config.RedisConfig, opts ...SnapshotCacheFactoryOption) *SnapshotCacheFactory {
	f := &SnapshotCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed snapshot cache
func (f *SnapshotCacheFactory) CreateRedisCache() (shared.SnapshotCache, error) {
	c, err := NewRedisSnapshotCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis snapshot cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates a process-local snapshot cache
func (f *SnapshotCacheFactory) CreateInMemoryCache() shared.SnapshotCache {
	return NewInMemorySnapshotCache()
}

// CreateCache tries Redis first and falls back to the in-memory cache when
// Redis is unavailable and fallback is allowed.
func (f *SnapshotCacheFactory) CreateCache() (shared.SnapshotCache, error) {
	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis snapshot cache")
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for snapshot cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory snapshot cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
