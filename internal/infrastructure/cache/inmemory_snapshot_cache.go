package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goldshop/backend/internal/domain/shared"
)

// InMemorySnapshotCache implements SnapshotCache with a process-local map.
// Suitable for single-instance deployments and testing.
// WARNING: entries are not shared across process instances, so a multi-node
// deployment recomputes snapshots per node.
type InMemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type inMemoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewInMemorySnapshotCache creates a cache with a background cleanup loop.
func NewInMemorySnapshotCache() *InMemorySnapshotCache {
	c := &InMemorySnapshotCache{
		entries:     make(map[string]inMemoryEntry),
		stopCleanup: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key if it has not expired.
func (c *InMemorySnapshotCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

// Set stores value under key for ttl.
func (c *InMemorySnapshotCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	c.mu.Lock()
	c.entries[key] = inMemoryEntry{value: stored, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Invalidate removes key.
func (c *InMemorySnapshotCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Close stops the cleanup loop.
func (c *InMemorySnapshotCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
	return nil
}

func (c *InMemorySnapshotCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *InMemorySnapshotCache) removeExpired() {
	now := time.Now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

var _ shared.SnapshotCache = (*InMemorySnapshotCache)(nil)
