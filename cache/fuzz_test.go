package cache

import "testing"

// Fuzz arbitrary op sequences against a tiny cache with both limits set.
// Each byte pair is (op, arg); the invariants must hold after every step
// and every limit must be met after each Set.
func FuzzCache_Ops(f *testing.F) {
	f.Add([]byte{0, 1, 0, 2, 0, 3}, int64(10), 2)
	f.Add([]byte{0, 9, 1, 9, 2, 0, 3, 0}, int64(0), 0)
	f.Add([]byte{0, 255, 0, 0, 0, 128, 2, 1}, int64(100), 1)

	f.Fuzz(func(t *testing.T, ops []byte, costLimit int64, countLimit int) {
		// Keep limits small so eviction actually happens.
		costLimit %= 512
		countLimit %= 16

		const nkeys = 8
		keys := make([]*Key[int], nkeys)
		for i := range keys {
			keys[i] = NewKey(i)
		}

		c := New[int, int](Options[int, int]{TotalCostLimit: costLimit, CountLimit: countLimit})
		model := map[int]int{} // key -> last value, for keys known to be absent or present

		for i := 0; i+1 < len(ops); i += 2 {
			op, arg := ops[i]%4, int(ops[i+1])
			k := keys[arg%nkeys]
			switch op {
			case 0:
				c.SetWithCost(k, arg, int64(arg))
				model[arg%nkeys] = arg
				if costLimit > 0 && c.TotalCost() > costLimit && c.Len() != 0 {
					t.Fatalf("cost %d above limit %d", c.TotalCost(), costLimit)
				}
				if countLimit > 0 && c.Len() > countLimit {
					t.Fatalf("len %d above limit %d", c.Len(), countLimit)
				}
			case 1:
				if v, ok := c.Get(k); ok && v != model[arg%nkeys] {
					t.Fatalf("key %d: got %d, last set %d", arg%nkeys, v, model[arg%nkeys])
				}
			case 2:
				c.Remove(k)
				if _, ok := c.Get(k); ok {
					t.Fatal("present after Remove")
				}
			case 3:
				c.RemoveAll()
				if c.Len() != 0 {
					t.Fatal("non-empty after RemoveAll")
				}
			}
			checkInvariants(t, c)
		}
	})
}
