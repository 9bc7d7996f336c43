package cache

import (
	"context"
	"log/slog"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCost: removed by the cost pass to bring total cost under TotalCostLimit.
	EvictCost EvictReason = iota
	// EvictCount: removed by the count pass to bring the entry count under CountLimit.
	EvictCount
	// EvictDiscarded: removed on access because its content was discarded.
	EvictDiscarded
)

func (r EvictReason) String() string {
	switch r {
	case EvictCost:
		return "cost"
	case EvictCount:
		return "count"
	case EvictDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Size is called with the cache lock held, so successive calls follow the
// order of mutations; it must not call back into the cache. Hit, Miss and
// Evict are called without the lock.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, cost int64)
}

// DiscardableContent is implemented by values whose backing content can be
// dropped independently of the cache (e.g. purgeable buffers).
type DiscardableContent interface {
	IsContentDiscarded() bool
}

// Loader fetches a value and its cost on a GetOrLoad miss.
type Loader[K, V any] func(ctx context.Context, k *Key[K]) (V, int64, error)

// Options configures the cache. The zero value is an unlimited cache with
// no delegate; defaults are applied in New():
//   - nil Metrics => NoopMetrics
//   - nil Logger  => discard
type Options[K, V any] struct {
	// Name is descriptive only; it is attached to log records.
	Name string

	// TotalCostLimit is the soft limit on the sum of entry costs (<= 0: unlimited).
	TotalCostLimit int64
	// CountLimit is the soft limit on the number of entries (<= 0: unlimited).
	CountLimit int

	// Delegate is notified before each capacity eviction, outside the lock.
	Delegate Delegate[K, V]

	// EvictsDiscardedContent makes Get drop entries whose value implements
	// DiscardableContent and reports its content as discarded.
	EvictsDiscardedContent bool

	// Loader fetches values for GetOrLoad.
	Loader Loader[K, V]

	// SizeHint pre-sizes the index and arena.
	SizeHint int

	// Observability
	Metrics Metrics
	Logger  *slog.Logger
}
