// Package pool recycles word buffers released by bitsets.
// Uses sync.Pool per power-of-two size class so that short-lived operator
// outputs and generator columns reuse memory instead of reallocating it.
package pool

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/truthbits/internal/mem"
)

const (
	// MinClassBits is log2 of the smallest pooled capacity (8 words = one cache line).
	MinClassBits = 3

	// MaxClassBits is log2 of the largest pooled capacity (2^24 words = 128 MiB).
	// Larger buffers are allocated directly and left to the GC on release.
	MaxClassBits = 24

	numClasses = MaxClassBits - MinClassBits + 1
)

// classes holds one pool per capacity 2^(MinClassBits+i) words.
var classes [numClasses]sync.Pool

// Stats tracks pool usage.
type Stats struct {
	Hits   uint64 // Get served from a pooled buffer
	Misses uint64 // Get that had to allocate
	Puts   uint64 // buffers accepted back
	Drops  uint64 // buffers rejected (too large or foreign capacity)
}

var stats struct {
	hits   atomic.Uint64
	misses atomic.Uint64
	puts   atomic.Uint64
	drops  atomic.Uint64
}

// classOf returns the size class index for n words, or -1 if n is not poolable.
func classOf(n int) int {
	if n <= 0 {
		return -1
	}
	b := bits.Len(uint(n - 1))
	if b < MinClassBits {
		b = MinClassBits
	}
	if b > MaxClassBits {
		return -1
	}
	return b - MinClassBits
}

// Get returns a buffer of exactly n words. Its contents are unspecified:
// a recycled buffer keeps whatever the previous owner left in it.
func Get(n int) []uint64 {
	if n <= 0 {
		return nil
	}

	class := classOf(n)
	if class < 0 {
		stats.misses.Add(1)
		return mem.AllocWords(n)
	}

	if v := classes[class].Get(); v != nil {
		stats.hits.Add(1)
		buf := v.(*[]uint64)
		return (*buf)[:n]
	}

	stats.misses.Add(1)
	capacity := 1 << (class + MinClassBits)
	return mem.AllocWords(capacity)[:n]
}

// GetZeroed returns a zero-filled buffer of exactly n words.
func GetZeroed(n int) []uint64 {
	buf := Get(n)
	clear(buf)
	return buf
}

// Put hands a buffer back for reuse. The caller must not touch it afterwards.
func Put(buf []uint64) {
	c := cap(buf)
	class := classOf(c)
	if class < 0 || c != 1<<(class+MinClassBits) {
		stats.drops.Add(1)
		return
	}

	buf = buf[:c]
	classes[class].Put(&buf)
	stats.puts.Add(1)
}

// ReadStats returns a snapshot of the pool counters.
func ReadStats() Stats {
	return Stats{
		Hits:   stats.hits.Load(),
		Misses: stats.misses.Load(),
		Puts:   stats.puts.Load(),
		Drops:  stats.drops.Load(),
	}
}
