package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
var ErrNoLoader = errors.New("cache: no Loader provided")

// Cache is an identity-keyed in-memory cache with soft cost and count
// limits. When a write pushes the cache over a limit, the cheapest entries
// are evicted first; ties go to the oldest entry of that cost.
//
// All methods are safe for concurrent use by multiple goroutines.
type Cache[K, V any] struct {
	// ---- guarded by mu ----
	mu       sync.RWMutex
	idx      index
	arena    arena[K, V]
	list     costList[K, V]
	total    int64  // sum of costs of linked entries
	pending  int    // indexed entries unlinked by an eviction pass, not yet unmapped
	gen      uint64 // last generation handed out
	lim      limits
	name     string
	delegate Delegate[K, V]

	evictDiscarded bool
	loader         Loader[K, V]
	sf             singleflight.Group

	metrics Metrics
	log     *slog.Logger

	stats counters
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics -> NoopMetrics
//   - nil Logger  -> discard
func New[K, V any](opt Options[K, V]) *Cache[K, V] {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}

	c := &Cache[K, V]{
		idx:            newIndex(opt.SizeHint),
		arena:          newArena[K, V](opt.SizeHint),
		lim:            limits{cost: opt.TotalCostLimit, count: opt.CountLimit},
		name:           opt.Name,
		delegate:       opt.Delegate,
		evictDiscarded: opt.EvictsDiscardedContent,
		loader:         opt.Loader,
		metrics:        opt.Metrics,
		log:            opt.Logger,
	}
	c.list = newCostList(&c.arena)
	return c
}

// Get returns the value for k and a presence flag. Reading does not affect
// eviction order.
//
// An entry that an in-flight Set has already chosen for eviction remains
// visible until that Set finishes notifying its delegate.
func (c *Cache[K, V]) Get(k *Key[K]) (V, bool) {
	v, ok := c.peek(tokenOf(k))
	if !ok {
		c.stats.misses.Add(1)
		c.metrics.Miss()
		var zero V
		return zero, false
	}
	c.stats.hits.Add(1)
	c.metrics.Hit()
	return v, true
}

// Set inserts or updates k→v with zero cost.
func (c *Cache[K, V]) Set(k *Key[K], v V) { c.SetWithCost(k, v, 0) }

// SetWithCost inserts or updates k→v with the given cost, then evicts the
// cheapest entries until TotalCostLimit and CountLimit are satisfied (or the
// cache is empty). The delegate, if any, is notified for each evicted value
// with no lock held; by the time SetWithCost returns, every evicted entry is
// gone from the cache.
//
// SetWithCost panics if cost is negative, if k is nil, or if the total
// cost of resident entries would overflow int64.
func (c *Cache[K, V]) SetWithCost(k *Key[K], v V, cost int64) {
	if cost < 0 {
		panic(fmt.Sprintf("cache: negative cost %d", cost))
	}
	t := tokenOf(k)

	c.mu.Lock()
	if !c.upsertLocked(k, t, v, cost) {
		total := c.total
		c.mu.Unlock()
		panic(fmt.Sprintf("cache: cost %d overflows total cost %d", cost, total))
	}
	batch := planEviction(&c.list, &c.total, c.idx.count()-c.pending, c.lim)
	c.pending += len(batch)
	d := c.delegate
	c.publishSizeLocked()
	c.mu.Unlock()

	if len(batch) > 0 {
		c.evict(batch, d)
	}
}

// Remove deletes k if present and reports whether it was.
// The delegate is not notified.
func (c *Cache[K, V]) Remove(k *Key[K]) bool {
	t := tokenOf(k)

	c.mu.Lock()
	i, ok := c.idx.lookup(t)
	if ok {
		c.removeLocked(t, i)
		c.publishSizeLocked()
	}
	c.mu.Unlock()
	return ok
}

// RemoveAll empties the cache. The delegate is not notified: a bulk clear
// is not an eviction.
func (c *Cache[K, V]) RemoveAll() {
	c.mu.Lock()
	c.idx.clear()
	c.list.reset()
	c.arena.reset()
	c.total = 0
	c.pending = 0
	c.publishSizeLocked()
	c.mu.Unlock()
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader
// and stores the result with the cost the loader reported. Concurrent
// loads for the same key are coalesced. A caller whose ctx ends while
// waiting returns ctx.Err(); the load itself keeps running.
// If no Loader is configured, returns ErrNoLoader.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, k *Key[K]) (V, error) {
	var zero V
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.loader == nil {
		return zero, ErrNoLoader
	}

	ch := c.sf.DoChan(tokenOf(k).String(), func() (any, error) {
		// double-check after flight join
		if v, ok := c.peek(k.id); ok {
			return v, nil
		}

		v, cost, err := c.loader(ctx, k)
		if err != nil {
			return zero, err
		}
		if cost < 0 {
			cost = 0
		}
		c.SetWithCost(k, v, cost)
		return v, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		v, _ := r.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// ---- configuration ----

// TotalCostLimit returns the soft cost limit (<= 0 means unlimited).
func (c *Cache[K, V]) TotalCostLimit() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lim.cost
}

// SetTotalCostLimit changes the soft cost limit. It applies from the next
// write on; it does not evict by itself.
func (c *Cache[K, V]) SetTotalCostLimit(n int64) {
	c.mu.Lock()
	c.lim.cost = n
	c.mu.Unlock()
}

// CountLimit returns the soft entry-count limit (<= 0 means unlimited).
func (c *Cache[K, V]) CountLimit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lim.count
}

// SetCountLimit changes the soft entry-count limit. It applies from the
// next write on; it does not evict by itself.
func (c *Cache[K, V]) SetCountLimit(n int) {
	c.mu.Lock()
	c.lim.count = n
	c.mu.Unlock()
}

// Name returns the descriptive name of the cache.
func (c *Cache[K, V]) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName sets the descriptive name of the cache.
func (c *Cache[K, V]) SetName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// Delegate returns the registered delegate, or nil.
func (c *Cache[K, V]) Delegate() Delegate[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.delegate
}

// SetDelegate registers d; nil unregisters.
func (c *Cache[K, V]) SetDelegate(d Delegate[K, V]) {
	c.mu.Lock()
	c.delegate = d
	c.mu.Unlock()
}

// ---- introspection ----

// Len returns the number of resident entries counted toward CountLimit.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list.len()
}

// TotalCost returns the sum of costs of resident entries.
func (c *Cache[K, V]) TotalCost() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Stats returns a snapshot of hit/miss/eviction counters.
func (c *Cache[K, V]) Stats() Stats { return c.stats.snapshot() }

// -------------------- internals --------------------

// peek looks t up without touching the hit/miss accounting. With
// EvictsDiscardedContent, a discarded value is removed and reported absent.
func (c *Cache[K, V]) peek(t Token) (V, bool) {
	c.mu.RLock()
	v, slot, gen, ok := c.lookupLocked(t)
	c.mu.RUnlock()

	if ok && c.evictDiscarded && discarded(v) {
		c.dropDiscarded(t, slot, gen)
		var zero V
		return zero, false
	}
	return v, ok
}

// publishSizeLocked reports the resident size while the lock is held, so
// concurrent writers publish in mutation order.
func (c *Cache[K, V]) publishSizeLocked() {
	c.metrics.Size(c.list.len(), c.total)
}

func discarded[V any](v V) bool {
	d, ok := any(v).(DiscardableContent)
	return ok && d.IsContentDiscarded()
}

// lookupLocked requires at least the read lock.
func (c *Cache[K, V]) lookupLocked(t Token) (v V, slot int32, gen uint64, ok bool) {
	i, ok := c.idx.lookup(t)
	if !ok {
		return v, nilSlot, 0, false
	}
	e := c.arena.at(i)
	return e.val, i, e.gen, true
}

// upsertLocked updates k in place or creates it. It reports false, with
// nothing changed, if the new cost would overflow the running total.
func (c *Cache[K, V]) upsertLocked(k *Key[K], t Token, v V, cost int64) bool {
	if i, ok := c.idx.lookup(t); ok {
		e := c.arena.at(i)
		delta := cost
		if e.linked {
			delta = cost - e.cost
		}
		if delta > math.MaxInt64-c.total {
			return false
		}
		// A new generation on every write: a pending unmap or discard
		// check that read the old value leaves this one alone.
		c.gen++
		e.gen = c.gen
		e.val = v
		switch {
		case !e.linked:
			// Popped by an in-flight eviction: bring it back.
			e.cost = cost
			c.list.insert(i)
			c.total += cost
			c.pending--
		case e.cost != cost:
			c.list.remove(i)
			c.total += cost - e.cost
			e.cost = cost
			c.list.insert(i)
		}
		return true
	}

	if cost > math.MaxInt64-c.total {
		return false
	}
	c.gen++
	i := c.arena.alloc(k, v, cost, c.gen)
	c.idx.insert(t, i)
	c.list.insert(i)
	c.total += cost
	return true
}

// removeLocked drops slot i (indexed under t) from every structure.
func (c *Cache[K, V]) removeLocked(t Token, i int32) {
	e := c.arena.at(i)
	c.idx.delete(t)
	if e.linked {
		c.list.remove(i)
		c.total -= e.cost
	} else {
		c.pending--
	}
	c.arena.release(i)
}

// evict notifies d about each victim, in batch order, then unmaps them.
// Called with no lock held. The unmap runs even if d panics.
func (c *Cache[K, V]) evict(batch []victim[V], d Delegate[K, V]) {
	defer c.unmap(batch)
	if d == nil {
		return
	}
	for _, vc := range batch {
		d.WillEvict(c, vc.val)
	}
}

// unmap removes victims from the index unless their slot was revived,
// removed or reused in the meantime (generation mismatch).
func (c *Cache[K, V]) unmap(batch []victim[V]) {
	c.mu.Lock()
	for _, vc := range batch {
		e, ok := c.arena.live(vc.slot)
		if !ok || e.gen != vc.gen || e.linked {
			continue
		}
		c.idx.delete(e.key.id)
		c.arena.release(vc.slot)
		c.pending--
	}
	name, entries, total := c.name, c.list.len(), c.total
	c.mu.Unlock()

	var freed int64
	for _, vc := range batch {
		freed += vc.cost
		c.metrics.Evict(vc.reason)
	}
	c.stats.evicts.Add(uint64(len(batch)))
	c.log.Debug("evicted",
		slog.String("cache", name),
		slog.Int("evicted", len(batch)),
		slog.Int64("cost", freed),
		slog.Int("entries", entries),
		slog.Int64("total_cost", total),
	)
}

// dropDiscarded removes the entry read from slot/gen if it is still there.
func (c *Cache[K, V]) dropDiscarded(t Token, slot int32, gen uint64) {
	c.mu.Lock()
	i, ok := c.idx.lookup(t)
	if !ok || i != slot || c.arena.at(i).gen != gen {
		c.mu.Unlock()
		return
	}
	c.removeLocked(t, i)
	c.publishSizeLocked()
	name := c.name
	c.mu.Unlock()

	c.stats.evicts.Add(1)
	c.metrics.Evict(EvictDiscarded)
	c.log.Debug("discarded content evicted", slog.String("cache", name), slog.String("key", t.String()))
}
