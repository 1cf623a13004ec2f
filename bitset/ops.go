package bitset

import "github.com/hupe1980/truthbits/internal/simd"

// ==============================================================================
// Fused Operators
// ==============================================================================
//
// Every operator writes its result into out and returns it. out may be nil
// (a new handle is allocated), one of the operands, or any other handle.
// Operands must be valid and of equal size.
//
// Phase 1 answers from popcount, size and FastCompare alone when an operand
// is constant or two operands are equal or complementary. The result is then
// a share of an operand (possibly inverted) or a constant, and no bucket is
// read. Phase 2 runs a single fused pass that stores each word, masks the
// final bucket and accumulates the popcount.

const negate = ^uint64(0)

func target(out *Bitset) *Bitset {
	if out == nil {
		return &Bitset{}
	}
	return out
}

// And stores a AND b into out.
func And(a, b, out *Bitset) *Bitset { return and(a, b, target(out), 0) }

// Or stores a OR b into out.
func Or(a, b, out *Bitset) *Bitset { return or(a, b, target(out), 0) }

// Xor stores a XOR b into out.
func Xor(a, b, out *Bitset) *Bitset { return xor(a, b, target(out), 0) }

// Nand stores NOT (a AND b) into out.
func Nand(a, b, out *Bitset) *Bitset { return and(a, b, target(out), negate) }

// Nor stores NOT (a OR b) into out.
func Nor(a, b, out *Bitset) *Bitset { return or(a, b, target(out), negate) }

// Xnor stores NOT (a XOR b) into out.
func Xnor(a, b, out *Bitset) *Bitset { return xor(a, b, target(out), negate) }

// Maj stores the bitwise majority of a, b and c into out.
func Maj(a, b, c, out *Bitset) *Bitset { return maj(a, b, c, target(out), 0) }

// Min stores the bitwise minority (NOT Maj) of a, b and c into out.
func Min(a, b, c, out *Bitset) *Bitset { return maj(a, b, c, target(out), negate) }

// Ite stores "if a then b else c" into out.
func Ite(a, b, c, out *Bitset) *Bitset { return ite(a, b, c, target(out), 0) }

// And sets b to b AND o.
func (b *Bitset) And(o *Bitset) *Bitset { return and(b, o, b, 0) }

// Or sets b to b OR o.
func (b *Bitset) Or(o *Bitset) *Bitset { return or(b, o, b, 0) }

// Xor sets b to b XOR o.
func (b *Bitset) Xor(o *Bitset) *Bitset { return xor(b, o, b, 0) }

// Nand sets b to NOT (b AND o).
func (b *Bitset) Nand(o *Bitset) *Bitset { return and(b, o, b, negate) }

// Nor sets b to NOT (b OR o).
func (b *Bitset) Nor(o *Bitset) *Bitset { return or(b, o, b, negate) }

// Xnor sets b to NOT (b XOR o).
func (b *Bitset) Xnor(o *Bitset) *Bitset { return xor(b, o, b, negate) }

func and(a, b, out *Bitset, neg uint64) *Bitset {
	switch {
	case a.AllZero(), b.AllOne():
		return out.assign(a, neg)
	case b.AllZero(), a.AllOne():
		return out.assign(b, neg)
	}
	switch FastCompare(a, b) {
	case Equal:
		return out.assign(a, neg)
	case Inverted:
		return out.constant(a.size, neg != 0)
	}
	return out.fuse2(a, b, neg, simd.And)
}

func or(a, b, out *Bitset, neg uint64) *Bitset {
	switch {
	case a.AllOne(), b.AllZero():
		return out.assign(a, neg)
	case b.AllOne(), a.AllZero():
		return out.assign(b, neg)
	}
	switch FastCompare(a, b) {
	case Equal:
		return out.assign(a, neg)
	case Inverted:
		return out.constant(a.size, neg == 0)
	}
	return out.fuse2(a, b, neg, simd.Or)
}

func xor(a, b, out *Bitset, neg uint64) *Bitset {
	switch {
	case a.AllZero():
		return out.assign(b, neg)
	case b.AllZero():
		return out.assign(a, neg)
	case a.AllOne():
		return out.assign(b, ^neg)
	case b.AllOne():
		return out.assign(a, ^neg)
	}
	switch FastCompare(a, b) {
	case Equal:
		return out.constant(a.size, neg != 0)
	case Inverted:
		return out.constant(a.size, neg == 0)
	}
	return out.fuse2(a, b, neg, simd.Xor)
}

func maj(a, b, c, out *Bitset, neg uint64) *Bitset {
	ab, ac, bc := FastCompare(a, b), FastCompare(a, c), FastCompare(b, c)
	switch {
	case ab == Equal, ac == Equal, bc == Inverted:
		return out.assign(a, neg)
	case bc == Equal, ac == Inverted:
		return out.assign(b, neg)
	case ab == Inverted:
		return out.assign(c, neg)
	case a.AllZero():
		return and(b, c, out, neg)
	case b.AllZero():
		return and(a, c, out, neg)
	case c.AllZero():
		return and(a, b, out, neg)
	case a.AllOne():
		return or(b, c, out, neg)
	case b.AllOne():
		return or(a, c, out, neg)
	case c.AllOne():
		return or(a, b, out, neg)
	}
	return out.fuse3(a, b, c, neg, simd.Maj)
}

func ite(a, b, c, out *Bitset, neg uint64) *Bitset {
	switch {
	case a.AllOne():
		return out.assign(b, neg)
	case a.AllZero():
		return out.assign(c, neg)
	}

	ab, ac, bc := FastCompare(a, b), FastCompare(a, c), FastCompare(b, c)
	switch {
	case bc == Equal:
		return out.assign(b, neg)
	case ab == Equal:
		return or(a, c, out, neg)
	case ac == Equal:
		return and(a, b, out, neg)
	case ab == Inverted:
		return and(a.view(negate), c, out, neg)
	case ac == Inverted:
		return or(a.view(negate), b, out, neg)
	case bc == Inverted:
		return xor(a, b, out, ^neg)
	case b.AllZero():
		return and(a.view(negate), c, out, neg)
	case b.AllOne():
		return or(a, c, out, neg)
	case c.AllZero():
		return and(a, b, out, neg)
	case c.AllOne():
		return or(a.view(negate), b, out, neg)
	}
	return out.fuse3(a, b, c, neg, simd.Ite)
}

func (out *Bitset) fuse2(a, b *Bitset, neg uint64, op simd.Op2) *Bitset {
	x, y := a.operand(), b.operand()
	size, last := a.size, a.last
	dst, old := out.writable(size)
	out.commit(simd.Fuse2(dst, x, y, neg, last, op), old)
	return out
}

func (out *Bitset) fuse3(a, b, c *Bitset, neg uint64, op simd.Op3) *Bitset {
	x, y, z := a.operand(), b.operand(), c.operand()
	size, last := a.size, a.last
	dst, old := out.writable(size)
	out.commit(simd.Fuse3(dst, x, y, z, neg, last, op), old)
	return out
}
