package cache

// victim is one element of an eviction batch. The value is copied out so
// the delegate can be notified after the lock is released, when the slot
// may already have been touched by other writers.
type victim[V any] struct {
	slot   int32
	gen    uint64
	val    V
	cost   int64
	reason EvictReason
}

// limits is the configuration snapshot the eviction engine works against.
type limits struct {
	cost  int64 // <= 0: unlimited
	count int   // <= 0: unlimited
}

// planEviction pops entries off the cost list, cheapest first, until the
// limits are met or the list is empty. It runs a cost pass and then a count
// pass that resumes where the cost pass stopped.
//
// live is the number of indexed entries that are still linked. Popped
// entries are unlinked and their cost is subtracted from *total, but they
// are left in the index; the caller unmaps them after notifying.
//
// Must be called with the cache write lock held.
func planEviction[K, V any](l *costList[K, V], total *int64, live int, lim limits) []victim[V] {
	var batch []victim[V]

	pop := func(reason EvictReason) bool {
		i, ok := l.popCheapest()
		if !ok {
			return false
		}
		e := l.a.at(i)
		*total -= e.cost
		batch = append(batch, victim[V]{slot: i, gen: e.gen, val: e.val, cost: e.cost, reason: reason})
		return true
	}

	for lim.cost > 0 && *total > lim.cost {
		if !pop(EvictCost) {
			return batch
		}
	}
	for lim.count > 0 && live-len(batch) > lim.count {
		if !pop(EvictCount) {
			return batch
		}
	}
	return batch
}
