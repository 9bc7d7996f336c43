package cache

// index maps identity tokens to arena slots.
// Tokens are compared by identity only; see Key.
type index struct {
	m map[Token]int32
}

func newIndex(capacity int) index {
	if capacity < 0 {
		capacity = 0
	}
	return index{m: make(map[Token]int32, capacity)}
}

func (x *index) lookup(t Token) (int32, bool) {
	i, ok := x.m[t]
	return i, ok
}

func (x *index) insert(t Token, slot int32) { x.m[t] = slot }

func (x *index) delete(t Token) (int32, bool) {
	i, ok := x.m[t]
	if ok {
		delete(x.m, t)
	}
	return i, ok
}

func (x *index) count() int { return len(x.m) }

func (x *index) clear() { clear(x.m) }
