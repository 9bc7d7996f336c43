package cache

import (
	"sync/atomic"
	"unsafe"
)

// cacheLineSize is a reasonable default for most modern CPUs.
const cacheLineSize = 64

// paddedCounter is an atomic counter occupying a full cache line, so the
// hit/miss/evict counters bumped by different goroutines do not falsely share.
type paddedCounter struct {
	atomic.Uint64
	_ [cacheLineSize - 8]byte
}

var _ [cacheLineSize - int(unsafe.Sizeof(paddedCounter{}))]byte

type counters struct {
	hits   paddedCounter
	misses paddedCounter
	evicts paddedCounter
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRatio returns hits/(hits+misses), or 0 with no lookups.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
	}
}
