package bitset

import (
	"sync/atomic"

	"github.com/hupe1980/truthbits/internal/pool"
)

// buffer is the word storage shared by one or more handles.
type buffer struct {
	words []uint64
	pop   uint64 // popcount of the stored words
	refs  atomic.Int32
}

func newBuffer(n int, zeroed bool) *buffer {
	var words []uint64
	if zeroed {
		words = pool.GetZeroed(n)
	} else {
		words = pool.Get(n)
	}
	b := &buffer{words: words}
	b.refs.Store(1)
	return b
}

func (b *buffer) retain() {
	b.refs.Add(1)
}

// release drops one reference. The last reference returns the words to the pool.
func (b *buffer) release() {
	if b.refs.Add(-1) != 0 {
		return
	}
	if cap(b.words) > 0 {
		pool.Put(b.words)
	}
	b.words = nil
}

func (b *buffer) exclusive() bool {
	return b.refs.Load() == 1
}

// clone returns an exclusive deep copy.
func (b *buffer) clone() *buffer {
	c := newBuffer(len(b.words), false)
	copy(c.words, b.words)
	c.pop = b.pop
	return c
}
