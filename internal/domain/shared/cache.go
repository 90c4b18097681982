package shared

import (
	"context"
	"time"
)

// SnapshotCache stores short-lived serialized projection snapshots, such as
// the replayed ledger state used by inventory audits. Implementations may be
// process-local or shared; callers must treat every entry as advisory and
// recompute on a miss.
type SnapshotCache interface {
	// Get returns the cached value for key; found is false on a miss.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key for at most ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes key. Removing an absent key is not an error.
	Invalidate(ctx context.Context, key string) error

	// Close releases any underlying resources.
	Close() error
}
