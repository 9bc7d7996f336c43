package cache

import "weak"

// Delegate observes capacity evictions.
//
// WillEvict is called once per evicted entry, cheapest first, after the
// entry has left the cost list and before it leaves the index. No cache
// lock is held during the call, so the delegate may call back into c.
// It cannot veto the eviction. A panic propagates to the Set caller.
type Delegate[K, V any] interface {
	WillEvict(c *Cache[K, V], v V)
}

// DelegateFunc adapts a plain function to Delegate.
type DelegateFunc[K, V any] func(c *Cache[K, V], v V)

// WillEvict calls f(c, v).
func (f DelegateFunc[K, V]) WillEvict(c *Cache[K, V], v V) { f(c, v) }

// weakDelegate holds its target through a weak pointer.
type weakDelegate[K, V, T any, P interface {
	*T
	Delegate[K, V]
}] struct {
	p weak.Pointer[T]
}

func (w weakDelegate[K, V, T, P]) WillEvict(c *Cache[K, V], v V) {
	if t := w.p.Value(); t != nil {
		P(t).WillEvict(c, v)
	}
}

// WeakDelegate returns a Delegate that does not keep d reachable. Once d is
// garbage collected, notifications are silently dropped, as if no delegate
// were registered.
func WeakDelegate[K, V, T any, P interface {
	*T
	Delegate[K, V]
}](d P) Delegate[K, V] {
	return weakDelegate[K, V, T, P]{p: weak.Make((*T)(d))}
}
