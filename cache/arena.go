package cache

// arena stores entries contiguously and hands out stable int32 slots.
// Released slots are kept on a free list and reused before the slice grows.
//
// Concurrency: guarded by the owning cache's lock.
type arena[K, V any] struct {
	slots []entry[K, V]
	free  []int32
}

func newArena[K, V any](capacity int) arena[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return arena[K, V]{slots: make([]entry[K, V], 0, capacity)}
}

// alloc claims a slot for a new entry and returns its index.
func (a *arena[K, V]) alloc(k *Key[K], v V, cost int64, gen uint64) int32 {
	e := entry[K, V]{key: k, val: v, cost: cost, gen: gen, prev: nilSlot, next: nilSlot}
	if n := len(a.free); n > 0 {
		i := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[i] = e
		return i
	}
	a.slots = append(a.slots, e)
	return int32(len(a.slots) - 1)
}

// release zeroes slot i (dropping key/value references) and recycles it.
func (a *arena[K, V]) release(i int32) {
	a.slots[i] = entry[K, V]{prev: nilSlot, next: nilSlot}
	a.free = append(a.free, i)
}

// at returns the entry in slot i. The pointer is only valid until the next
// alloc, which may grow the slice.
func (a *arena[K, V]) at(i int32) *entry[K, V] { return &a.slots[i] }

// live returns the entry in slot i if i is in range and occupied.
func (a *arena[K, V]) live(i int32) (*entry[K, V], bool) {
	if i < 0 || int(i) >= len(a.slots) {
		return nil, false
	}
	e := &a.slots[i]
	if e.free() {
		return nil, false
	}
	return e, true
}

// reset drops every slot. Backing storage is not retained so large values
// become collectable immediately.
func (a *arena[K, V]) reset() {
	a.slots = nil
	a.free = nil
}
