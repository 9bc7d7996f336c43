package cache

// costList threads arena entries into a doubly linked list sorted by
// ascending cost (head = cheapest). Entries of equal cost keep insertion
// order, so the oldest of a cost tier is evicted first.
//
// Insertion is O(n) in the worst case; appending an entry at least as
// expensive as the tail is O(1). Removal is O(1).
type costList[K, V any] struct {
	a    *arena[K, V]
	head int32
	tail int32
	n    int
}

func newCostList[K, V any](a *arena[K, V]) costList[K, V] {
	return costList[K, V]{a: a, head: nilSlot, tail: nilSlot}
}

func (l *costList[K, V]) isEmpty() bool { return l.head == nilSlot }

func (l *costList[K, V]) len() int { return l.n }

// insert links slot i before the first entry with strictly greater cost,
// or at the tail if there is none.
func (l *costList[K, V]) insert(i int32) {
	e := l.a.at(i)

	// Empty list, or e is the most expensive so far: append.
	if l.tail == nilSlot || l.a.at(l.tail).cost <= e.cost {
		e.prev = l.tail
		e.next = nilSlot
		if l.tail != nilSlot {
			l.a.at(l.tail).next = i
		} else {
			l.head = i
		}
		l.tail = i
		e.linked = true
		l.n++
		return
	}

	// The tail is costlier, so the scan below always finds a position.
	at := l.head
	for l.a.at(at).cost <= e.cost {
		at = l.a.at(at).next
	}
	succ := l.a.at(at)
	e.prev = succ.prev
	e.next = at
	if succ.prev != nilSlot {
		l.a.at(succ.prev).next = i
	} else {
		l.head = i
	}
	succ.prev = i
	e.linked = true
	l.n++
}

// remove unlinks slot i in O(1) and clears its links.
func (l *costList[K, V]) remove(i int32) {
	e := l.a.at(i)
	if e.prev != nilSlot {
		l.a.at(e.prev).next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nilSlot {
		l.a.at(e.next).prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nilSlot, nilSlot
	e.linked = false
	l.n--
}

// popCheapest unlinks and returns the head slot.
func (l *costList[K, V]) popCheapest() (int32, bool) {
	if l.head == nilSlot {
		return nilSlot, false
	}
	i := l.head
	l.remove(i)
	return i, true
}

// reset forgets every link. The arena is reset separately.
func (l *costList[K, V]) reset() {
	l.head, l.tail = nilSlot, nilSlot
	l.n = 0
}
