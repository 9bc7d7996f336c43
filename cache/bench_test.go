package cache

import (
	"math/rand"
	"sync/atomic"
	"testing"
)

// benchmarkMix exercises a read/write mix against a warm cache with both
// limits enabled, so writes pay for sorted insertion and eviction.
// It uses parallel workers (RunParallel spawns GOMAXPROCS goroutines).
func benchmarkMix(b *testing.B, readsPct int) {
	const keyspace = 1 << 14
	keys := make([]*Key[int], keyspace)
	for i := range keys {
		keys[i] = NewKey(i)
	}

	c := New[int, int](Options[int, int]{
		CountLimit:     keyspace / 2,
		TotalCostLimit: keyspace * 8,
		SizeHint:       keyspace,
	})
	for i := 0; i < keyspace/2; i++ {
		c.SetWithCost(keys[i], i, int64(i%32))
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := keys[i&(keyspace-1)]
			if r.Intn(100) < readsPct {
				c.Get(k)
			} else {
				c.SetWithCost(k, i, int64(r.Intn(32)))
			}
			i++
		}
	})
}

func BenchmarkCache_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkCache_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// BenchmarkCache_AppendTail measures the O(1) path for entries that are at
// least as expensive as everything already cached.
func BenchmarkCache_AppendTail(b *testing.B) {
	c := New[int, int](Options[int, int]{CountLimit: 4_096})
	keys := make([]*Key[int], b.N)
	for i := range keys {
		keys[i] = NewKey(i)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SetWithCost(keys[i], i, int64(i))
	}
}
