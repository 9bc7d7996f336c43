package cache

// nilSlot marks the absence of a neighbour (or of an entry).
const nilSlot int32 = -1

// entry is an arena-resident cache record. It is linked into the
// cost-ordered list by slot index rather than by pointer, so slots can be
// recycled without leaving dangling links behind.
type entry[K, V any] struct {
	key *Key[K] // nil while the slot is free
	val V

	// Caller-assigned weight; never negative.
	cost int64

	// Cost list links (slot indices). The list owns these fields.
	prev int32
	next int32

	// Cache-wide generation stamped on every write to the entry.
	// Pending unmaps and discard checks compare it to detect stale reads.
	gen uint64

	// linked reports membership in the cost list. An indexed entry with
	// linked == false has been popped by an eviction pass and is waiting
	// to be unmapped.
	linked bool
}

func (e *entry[K, V]) free() bool { return e.key == nil }
