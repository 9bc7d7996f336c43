// Package cache provides a generic, identity-keyed in-memory cache with soft
// limits on total cost and entry count, cheapest-first eviction, and a
// delegate that is told about each eviction before it completes.
//
// Design
//
//   - Identity keys: entries are addressed by *Key handles created with
//     NewKey. Each handle carries a random Token assigned at creation, so
//     two handles wrapping equal values are two independent slots.
//
//   - Storage: entries live in an arena addressed by int32 slots. A map
//     from Token to slot gives O(1) lookup; a doubly linked list threaded
//     through the arena keeps entries sorted by ascending cost (FIFO within
//     a cost). Insertion into the list is O(n) worst case.
//
//   - Eviction: after each write the cache runs a cost pass (while
//     TotalCostLimit > 0 and the total cost exceeds it) and then a count
//     pass (while CountLimit > 0 and the entry count exceeds it), popping
//     the cheapest entry each time. Limits are soft: they may be exceeded
//     between a write and its eviction pass, and an empty cache stops the
//     pass early. Reads never change the eviction order.
//
//   - Delegate: evicted values are handed to Options.Delegate (or
//     SetDelegate) with no lock held, cheapest first. A delegate may call
//     back into the cache; an entry being evicted is still readable with
//     Get until the notifications for its batch are done.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; plug the Prometheus adapter in
//     metrics/prom to export them.
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{
//	    TotalCostLimit: 64 << 20,
//	    CountLimit:     10_000,
//	})
//	k := cache.NewKey("avatar:42")
//	c.SetWithCost(k, img, int64(len(img)))
//	if v, ok := c.Get(k); ok {
//	    _ = v
//	}
//	c.Remove(k)
//
// Observing evictions
//
//	c.SetDelegate(cache.DelegateFunc[string, []byte](func(_ *cache.Cache[string, []byte], v []byte) {
//	    pool.Put(v)
//	}))
//
// Thread-safety & complexity
//
// All methods on Cache are safe for concurrent use. A single RWMutex guards
// the index, the list and the totals; delegate, metrics and logging calls
// are made outside it.
package cache
