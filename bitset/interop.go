package bitset

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	bbset "github.com/bits-and-blooms/bitset"
)

// ToRoaring returns the set positions as a roaring bitmap.
// Bitsets larger than 2^32 bits cannot be represented.
func (b *Bitset) ToRoaring() (*roaring.Bitmap, error) {
	if b.Size() > math.MaxUint32+1 {
		return nil, fmt.Errorf("%w: size %d exceeds roaring range", ErrOverflow, b.Size())
	}

	rb := roaring.New()
	batch := make([]uint32, 0, 1024)
	b.ForEach(func(pos uint64) bool {
		batch = append(batch, uint32(pos))
		if len(batch) == cap(batch) {
			rb.AddMany(batch)
			batch = batch[:0]
		}
		return true
	})
	rb.AddMany(batch)
	return rb, nil
}

// FromRoaring returns a bitset of size bits with the positions of rb set.
func FromRoaring(rb *roaring.Bitmap, size uint64) (*Bitset, error) {
	if !rb.IsEmpty() && uint64(rb.Maximum()) >= size {
		return nil, fmt.Errorf("%w: position %d for size %d", ErrOverflow, rb.Maximum(), size)
	}

	b := New(size)
	it := rb.Iterator()
	for it.HasNext() {
		pos := uint64(it.Next())
		b.buf.words[pos/WordBits] |= 1 << (pos % WordBits)
	}
	b.buf.pop = rb.GetCardinality()
	return b, nil
}

// ToBitSet converts b to a bits-and-blooms bitset of the same length.
func (b *Bitset) ToBitSet() *bbset.BitSet {
	bs := bbset.New(uint(b.Size()))
	b.ForEach(func(pos uint64) bool {
		bs.Set(uint(pos))
		return true
	})
	return bs
}

// FromBitSet converts a bits-and-blooms bitset, keeping its length.
func FromBitSet(bs *bbset.BitSet) *Bitset {
	b := New(uint64(bs.Len()))
	for i, ok := bs.NextSet(0); ok && i < bs.Len(); i, ok = bs.NextSet(i + 1) {
		b.Set(uint64(i))
	}
	return b
}
