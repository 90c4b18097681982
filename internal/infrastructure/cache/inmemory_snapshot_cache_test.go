package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySnapshotCache(t *testing.T) {
	t.Run("set then get returns the value", func(t *testing.T) {
		c := NewInMemorySnapshotCache()
		defer c.Close()

		require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))

		data, found, err := c.Get(context.Background(), "k")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("v"), data)
	})

	t.Run("get misses an unknown key", func(t *testing.T) {
		c := NewInMemorySnapshotCache()
		defer c.Close()

		_, found, err := c.Get(context.Background(), "missing")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		c := NewInMemorySnapshotCache()
		defer c.Close()

		require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, found, err := c.Get(context.Background(), "k")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		c := NewInMemorySnapshotCache()
		defer c.Close()

		require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
		require.NoError(t, c.Invalidate(context.Background(), "k"))

		_, found, err := c.Get(context.Background(), "k")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("stored value is isolated from caller mutation", func(t *testing.T) {
		c := NewInMemorySnapshotCache()
		defer c.Close()

		src := []byte("abc")
		require.NoError(t, c.Set(context.Background(), "k", src, time.Minute))
		src[0] = 'x'

		data, found, err := c.Get(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []byte("abc"), data)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		c := NewInMemorySnapshotCache()
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})
}
