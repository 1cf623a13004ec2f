package bitset

import "github.com/hupe1980/truthbits/internal/simd"

// Comparison is the outcome of FastCompare.
type Comparison uint8

const (
	// Unknown means metadata alone cannot decide; compare the buckets.
	Unknown Comparison = iota
	// Equal means the bitsets hold the same logical value.
	Equal
	// Different means the bitsets are not equal.
	Different
	// Inverted means each bitset is the complement of the other.
	Inverted
)

func (c Comparison) String() string {
	switch c {
	case Equal:
		return "equal"
	case Different:
		return "different"
	case Inverted:
		return "inverted"
	default:
		return "unknown"
	}
}

// Not flips the handle's mask in O(1) and returns the receiver.
// Other handles sharing the buffer are not affected.
func (b *Bitset) Not() *Bitset {
	b.mask = ^b.mask
	return b
}

// Not makes out a share of the complement of a and returns it.
// A nil out allocates a new handle.
func Not(a, out *Bitset) *Bitset {
	return target(out).assign(a, ^uint64(0))
}

// Wire makes out a share of a and returns it.
// A nil out allocates a new handle.
func Wire(a, out *Bitset) *Bitset {
	return target(out).assign(a, 0)
}

// FastCompare classifies a and b in constant time using only size,
// popcount and buffer identity.
func FastCompare(a, b *Bitset) Comparison {
	if !a.Valid() || !b.Valid() {
		return Different
	}
	if a.size != b.size {
		return Different
	}
	if a.size == 0 {
		return Equal
	}
	if a.buf == b.buf {
		if a.mask == b.mask {
			return Equal
		}
		return Inverted
	}

	pa, pb := a.Popcount(), b.Popcount()
	if pa != pb {
		if (pa == 0 && pb == a.size) || (pa == a.size && pb == 0) {
			return Inverted
		}
		return Different
	}
	if pa == 0 || pa == a.size {
		return Equal
	}
	return Unknown
}

// Equal reports whether b and o hold the same logical bits.
func (b *Bitset) Equal(o *Bitset) bool {
	switch FastCompare(b, o) {
	case Equal:
		return true
	case Unknown:
		return simd.EqualWords(len(b.buf.words), b.operand(), o.operand(), b.last)
	default:
		return false
	}
}

// Is reports whether b and o are handles on the same buffer with the same mask.
func (b *Bitset) Is(o *Bitset) bool {
	return b.Valid() && o.Valid() && b.buf == o.buf && b.mask == o.mask
}

// Compare orders bitsets: a shorter bitset sorts first, equal sizes compare
// numerically as big-endian values (highest bucket first). Invalid bitsets
// sort before valid ones. It returns -1, 0 or +1.
func Compare(a, b *Bitset) int {
	switch {
	case !a.Valid() && !b.Valid():
		return 0
	case !a.Valid():
		return -1
	case !b.Valid():
		return 1
	case a.size != b.size:
		if a.size < b.size {
			return -1
		}
		return 1
	}
	if FastCompare(a, b) == Equal {
		return 0
	}
	for i := len(a.buf.words) - 1; i >= 0; i-- {
		x, y := a.Bucket(i), b.Bucket(i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}
