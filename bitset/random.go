package bitset

import (
	"math/rand"

	"github.com/hupe1980/truthbits/internal/simd"
)

// Random returns a bitset of size bits with uniformly random contents.
func Random(size uint64, rng *rand.Rand) *Bitset {
	b := &Bitset{
		buf:  newBuffer(bucketsFor(size), false),
		size: size,
		last: lastMaskFor(size),
	}
	for i := range b.buf.words {
		b.buf.words[i] = rng.Uint64()
	}
	b.fixLast(false)
	b.buf.pop = simd.PopcountWords(b.buf.words)
	return b
}
