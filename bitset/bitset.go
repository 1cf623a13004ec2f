package bitset

import (
	"math/bits"

	"github.com/hupe1980/truthbits/internal/simd"
)

// WordBits is the number of bits per bucket.
const WordBits = 64

// Bitset is a handle on a shared word buffer.
//
// The zero value is an invalid bitset: it compares Different to everything,
// prints as "0" and may only be overwritten (as the out argument of an
// operator, or through Assign / UnmarshalBinary).
type Bitset struct {
	buf  *buffer
	size uint64
	mask uint64 // 0 = normal, ^0 = logically inverted
	last uint64 // meaningful bits of the final bucket
}

func bucketsFor(size uint64) int {
	return int((size + WordBits - 1) / WordBits)
}

func lastMaskFor(size uint64) uint64 {
	if r := size % WordBits; r != 0 {
		return 1<<r - 1
	}
	return ^uint64(0)
}

// New returns a zero-filled bitset of size bits.
func New(size uint64) *Bitset {
	return &Bitset{
		buf:  newBuffer(bucketsFor(size), true),
		size: size,
		last: lastMaskFor(size),
	}
}

// NewUninit returns a bitset of size bits backed by a recycled buffer whose
// contents are unspecified. The tail is masked and the popcount is computed
// by scanning, so the result is consistent, just not predictable. Use it when
// every bucket is about to be overwritten.
func NewUninit(size uint64) *Bitset {
	b := &Bitset{
		buf:  newBuffer(bucketsFor(size), false),
		size: size,
		last: lastMaskFor(size),
	}
	b.fixLast(false)
	b.buf.pop = simd.PopcountWords(b.buf.words)
	return b
}

// NewFilled returns a bitset of size bits with every bucket set to word.
func NewFilled(size, word uint64) *Bitset {
	b := &Bitset{
		buf:  newBuffer(bucketsFor(size), false),
		size: size,
		last: lastMaskFor(size),
	}
	b.Fill(word)
	return b
}

// Valid reports whether the handle owns a buffer.
func (b *Bitset) Valid() bool {
	return b != nil && b.buf != nil
}

// Size returns the number of logical bits.
func (b *Bitset) Size() uint64 {
	if !b.Valid() {
		return 0
	}
	return b.size
}

// Buckets returns the number of 64-bit words.
func (b *Bitset) Buckets() int {
	if !b.Valid() {
		return 0
	}
	return len(b.buf.words)
}

// Popcount returns the number of logically set bits.
func (b *Bitset) Popcount() uint64 {
	if !b.Valid() {
		return 0
	}
	if b.mask != 0 {
		return b.size - b.buf.pop
	}
	return b.buf.pop
}

// AllZero reports whether no bit is set.
func (b *Bitset) AllZero() bool {
	return b.Popcount() == 0
}

// AllOne reports whether every bit is set.
func (b *Bitset) AllOne() bool {
	return b.Popcount() == b.Size()
}

// Inverted reports whether the handle reads its buffer through an inverting mask.
func (b *Bitset) Inverted() bool {
	return b.mask != 0
}

// Shared reports whether other handles hold the same buffer.
func (b *Bitset) Shared() bool {
	return b.Valid() && !b.buf.exclusive()
}

// makeExclusive deep-copies the buffer when other handles share it.
func (b *Bitset) makeExclusive() {
	if b.buf.exclusive() {
		return
	}
	c := b.buf.clone()
	b.buf.release()
	b.buf = c
}

// Get returns the logical value at pos. Positions at or past Size read false.
func (b *Bitset) Get(pos uint64) bool {
	if pos >= b.size {
		return false
	}
	return (b.buf.words[pos/WordBits]^b.mask)>>(pos%WordBits)&1 == 1
}

// Set sets the logical bit at pos. Positions at or past Size are ignored.
func (b *Bitset) Set(pos uint64) {
	if pos >= b.size {
		return
	}
	i, bit := pos/WordBits, uint64(1)<<(pos%WordBits)
	if (b.buf.words[i]^b.mask)&bit != 0 {
		return
	}
	b.makeExclusive()
	b.buf.words[i] ^= bit
	b.adjust(b.mask == 0)
}

// Reset clears the logical bit at pos.
func (b *Bitset) Reset(pos uint64) {
	if pos >= b.size {
		return
	}
	i, bit := pos/WordBits, uint64(1)<<(pos%WordBits)
	if (b.buf.words[i]^b.mask)&bit == 0 {
		return
	}
	b.makeExclusive()
	b.buf.words[i] ^= bit
	b.adjust(b.mask != 0)
}

// SetTo sets or clears the bit at pos.
func (b *Bitset) SetTo(pos uint64, v bool) {
	if v {
		b.Set(pos)
	} else {
		b.Reset(pos)
	}
}

// Flip toggles the bit at pos.
func (b *Bitset) Flip(pos uint64) {
	if pos >= b.size {
		return
	}
	b.makeExclusive()
	i, bit := pos/WordBits, uint64(1)<<(pos%WordBits)
	b.buf.words[i] ^= bit
	b.adjust(b.buf.words[i]&bit != 0)
}

// adjust moves the stored popcount by one after a single physical toggle.
func (b *Bitset) adjust(physicalSet bool) {
	if physicalSet {
		b.buf.pop++
	} else {
		b.buf.pop--
	}
}

// Bucket returns logical word i. Bits past Size read as zero.
func (b *Bitset) Bucket(i int) uint64 {
	w := b.buf.words[i] ^ b.mask
	if i == len(b.buf.words)-1 {
		w &= b.last
	}
	return w
}

// SetBucket writes logical word i. Bits past Size are discarded.
func (b *Bitset) SetBucket(i int, w uint64) {
	b.makeExclusive()
	stored := w ^ b.mask
	if i == len(b.buf.words)-1 {
		stored &= b.last
	}
	old := b.buf.words[i]
	b.buf.words[i] = stored
	b.buf.pop = b.buf.pop - uint64(bits.OnesCount64(old)) + uint64(bits.OnesCount64(stored))
}

// Fill replicates the logical word across every bucket.
func (b *Bitset) Fill(word uint64) {
	b.makeExclusive()
	stored := word ^ b.mask
	simd.FillWords(b.buf.words, stored)
	b.buf.pop = uint64(bits.OnesCount64(stored)) * uint64(len(b.buf.words))
	b.fixLast(true)
}

// FillRange replicates the logical word across buckets [begin, end).
// Only the range is rescanned to update the popcount.
func (b *Bitset) FillRange(begin, end int, word uint64) {
	if begin >= end {
		return
	}
	b.makeExclusive()
	stored := word ^ b.mask
	span := b.buf.words[begin:end]
	old := simd.PopcountWords(span)
	simd.FillWords(span, stored)
	b.buf.pop = b.buf.pop - old + uint64(bits.OnesCount64(stored))*uint64(end-begin)
	if end == len(b.buf.words) {
		b.fixLast(true)
	}
}

// FillN replicates the logical word across count buckets starting at begin.
func (b *Bitset) FillN(begin, count int, word uint64) {
	b.FillRange(begin, begin+count, word)
}

// SetAll sets every logical bit.
func (b *Bitset) SetAll() {
	b.makeExclusive()
	simd.FillWords(b.buf.words, ^b.mask)
	b.fixLast(false)
	if b.mask == 0 {
		b.buf.pop = b.size
	} else {
		b.buf.pop = 0
	}
}

// ResetAll clears every logical bit.
func (b *Bitset) ResetAll() {
	b.makeExclusive()
	simd.FillWords(b.buf.words, b.mask)
	b.fixLast(false)
	if b.mask == 0 {
		b.buf.pop = 0
	} else {
		b.buf.pop = b.size
	}
}

// fixLast clears stored bits past Size. With adjust, the popcount drops by
// the number of bits removed.
func (b *Bitset) fixLast(adjust bool) {
	n := len(b.buf.words)
	if n == 0 {
		return
	}
	old := b.buf.words[n-1]
	masked := old & b.last
	b.buf.words[n-1] = masked
	if adjust {
		b.buf.pop -= uint64(bits.OnesCount64(old) - bits.OnesCount64(masked))
	}
}

// Share returns a new handle on the same buffer with the same mask.
func (b *Bitset) Share() *Bitset {
	if !b.Valid() {
		return &Bitset{}
	}
	b.buf.retain()
	s := *b
	return &s
}

// Move returns a handle that takes over the buffer; b becomes invalid.
func (b *Bitset) Move() *Bitset {
	m := *b
	*b = Bitset{}
	return &m
}

// Clone returns a deep copy.
func (b *Bitset) Clone() *Bitset {
	if !b.Valid() {
		return &Bitset{}
	}
	c := *b
	c.buf = b.buf.clone()
	return &c
}

// Assign makes b a share of src, releasing b's previous buffer.
func (b *Bitset) Assign(src *Bitset) *Bitset {
	if !src.Valid() {
		b.Release()
		return b
	}
	return b.assign(src, 0)
}

// Release drops the handle's reference. The handle becomes invalid.
func (b *Bitset) Release() {
	if b.buf != nil {
		b.buf.release()
	}
	*b = Bitset{}
}

// assign makes b a share of x, inverted when neg is set.
func (b *Bitset) assign(x *Bitset, neg uint64) *Bitset {
	if b != x {
		x.buf.retain()
		if b.buf != nil {
			b.buf.release()
		}
		b.buf, b.size, b.mask, b.last = x.buf, x.size, x.mask, x.last
	}
	b.mask ^= neg
	return b
}

// constant turns b into an all-zero or all-one bitset of size bits.
func (b *Bitset) constant(size uint64, one bool) *Bitset {
	if b.Valid() && b.size == size && b.buf.exclusive() {
		if one {
			b.SetAll()
		} else {
			b.ResetAll()
		}
		return b
	}
	if b.buf != nil {
		b.buf.release()
	}
	*b = Bitset{
		buf:  newBuffer(bucketsFor(size), true),
		size: size,
		last: lastMaskFor(size),
	}
	if one {
		b.mask = ^uint64(0)
	}
	return b
}

// writable returns storage for a full overwrite of size bits. The current
// buffer is reused when b owns it exclusively and it has the right size;
// otherwise a fresh one is installed and the previous one is returned so
// the caller can release it after reading its operands.
func (b *Bitset) writable(size uint64) ([]uint64, *buffer) {
	if b.Valid() && b.size == size && b.buf.exclusive() {
		return b.buf.words, nil
	}
	old := b.buf
	b.buf = newBuffer(bucketsFor(size), false)
	b.size = size
	b.last = lastMaskFor(size)
	return b.buf.words, old
}

// commit records the popcount of a full overwrite and drops the old buffer.
func (b *Bitset) commit(pop uint64, old *buffer) {
	b.buf.pop = pop
	b.mask = 0
	if old != nil {
		old.release()
	}
}

func (b *Bitset) operand() simd.Operand {
	return simd.Operand{Words: b.buf.words, Mask: b.mask}
}

// view returns an unowned handle on b's buffer, inverted when neg is set.
// It must not outlive b and must not be released.
func (b *Bitset) view(neg uint64) *Bitset {
	v := *b
	v.mask ^= neg
	return &v
}
