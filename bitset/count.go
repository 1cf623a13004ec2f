package bitset

import "github.com/hupe1980/truthbits/internal/simd"

// The *Count functions return the popcount an operator would produce
// without materializing the result.

// AndCount returns the popcount of a AND b.
func AndCount(a, b *Bitset) uint64 {
	switch {
	case a.AllZero() || b.AllZero():
		return 0
	case a.AllOne():
		return b.Popcount()
	case b.AllOne():
		return a.Popcount()
	}
	return count2(a, b, simd.And)
}

// OrCount returns the popcount of a OR b.
func OrCount(a, b *Bitset) uint64 {
	switch {
	case a.AllOne() || b.AllOne():
		return a.size
	case a.AllZero():
		return b.Popcount()
	case b.AllZero():
		return a.Popcount()
	}
	return count2(a, b, simd.Or)
}

// XorCount returns the popcount of a XOR b, the Hamming distance.
func XorCount(a, b *Bitset) uint64 {
	switch {
	case a.AllZero():
		return b.Popcount()
	case b.AllZero():
		return a.Popcount()
	case a.AllOne():
		return a.size - b.Popcount()
	case b.AllOne():
		return a.size - a.Popcount()
	}
	switch FastCompare(a, b) {
	case Equal:
		return 0
	case Inverted:
		return a.size
	}
	return count2(a, b, simd.Xor)
}

// MajCount returns the popcount of the bitwise majority of a, b and c.
func MajCount(a, b, c *Bitset) uint64 {
	return count3(a, b, c, simd.Maj)
}

// And3Count returns the popcount of a AND b AND c.
func And3Count(a, b, c *Bitset) uint64 {
	if a.AllZero() || b.AllZero() || c.AllZero() {
		return 0
	}
	return count3(a, b, c, simd.And3)
}

func count2(a, b *Bitset, op simd.Op2) uint64 {
	return simd.Count2(len(a.buf.words), a.operand(), b.operand(), 0, a.last, op)
}

func count3(a, b, c *Bitset, op simd.Op3) uint64 {
	return simd.Count3(len(a.buf.words), a.operand(), b.operand(), c.operand(), 0, a.last, op)
}
