package simd

import "math/bits"

// ==============================================================================
// Fused Word Kernels
// ==============================================================================
//
// Every kernel reads operands through their flip mask (word ^ Mask), so a
// logically inverted bitset never needs its data rewritten. The final word of
// the output is ANDed with the caller's last-bucket mask before it is stored
// and counted, which keeps bits past the logical size at zero.

// Operand is a word slice viewed through a flip mask (0 or ^0).
type Operand struct {
	Words []uint64
	Mask  uint64
}

// Op2 combines two logical words.
type Op2 func(a, b uint64) uint64

// Op3 combines three logical words.
type Op3 func(a, b, c uint64) uint64

// And returns a & b.
func And(a, b uint64) uint64 { return a & b }

// Or returns a | b.
func Or(a, b uint64) uint64 { return a | b }

// Xor returns a ^ b.
func Xor(a, b uint64) uint64 { return a ^ b }

// Maj returns the bitwise majority of a, b and c.
func Maj(a, b, c uint64) uint64 { return (a & b) | (a & c) | (b & c) }

// Ite returns b where a is set and c elsewhere.
func Ite(a, b, c uint64) uint64 { return (a & b) | (^a & c) }

// And3 returns a & b & c.
func And3(a, b, c uint64) uint64 { return a & b & c }

// Kernel function pointers. Generic implementations are the default;
// useKernels swaps in the unrolled versions when the CPU has fast popcount.
var (
	kernelFuse2    = fuse2Generic
	kernelFuse3    = fuse3Generic
	kernelCount2   = count2Generic
	kernelCount3   = count3Generic
	kernelPopcount = popcountGeneric
)

// Fuse2 stores op(a, b) ^ neg into dst, masks the last word with last and
// returns the popcount of dst. a and b must hold at least len(dst) words.
// dst may alias either operand.
func Fuse2(dst []uint64, a, b Operand, neg, last uint64, op Op2) uint64 {
	return kernelFuse2(dst, a, b, neg, last, op)
}

// Fuse3 is Fuse2 for three operands.
func Fuse3(dst []uint64, a, b, c Operand, neg, last uint64, op Op3) uint64 {
	return kernelFuse3(dst, a, b, c, neg, last, op)
}

// Count2 returns the popcount of op(a, b) ^ neg over n words, with the
// last word masked by last, without materializing the result.
func Count2(n int, a, b Operand, neg, last uint64, op Op2) uint64 {
	return kernelCount2(n, a, b, neg, last, op)
}

// Count3 is Count2 for three operands.
func Count3(n int, a, b, c Operand, neg, last uint64, op Op3) uint64 {
	return kernelCount3(n, a, b, c, neg, last, op)
}

// PopcountWords counts all set bits across words.
func PopcountWords(words []uint64) uint64 {
	return kernelPopcount(words)
}

// FillWords sets every word of dst to v.
func FillWords(dst []uint64, v uint64) {
	if len(dst) == 0 {
		return
	}
	// Doubling copy lets the runtime memmove do the bulk of the work.
	dst[0] = v
	for filled := 1; filled < len(dst); filled *= 2 {
		copy(dst[filled:], dst[:filled])
	}
}

// EqualWords reports whether the first n logical words of a and b match,
// comparing the last word under last.
func EqualWords(n int, a, b Operand, last uint64) bool {
	if n == 0 {
		return true
	}
	aw, bw := a.Words[:n], b.Words[:n]
	if a.Mask == b.Mask {
		for i := 0; i < n-1; i++ {
			if aw[i] != bw[i] {
				return false
			}
		}
	} else {
		for i := 0; i < n-1; i++ {
			if aw[i]^a.Mask != bw[i]^b.Mask {
				return false
			}
		}
	}
	return (aw[n-1]^a.Mask)&last == (bw[n-1]^b.Mask)&last
}

// ==============================================================================
// Generic implementations
// ==============================================================================

func fuse2Generic(dst []uint64, a, b Operand, neg, last uint64, op Op2) uint64 {
	n := len(dst)
	if n == 0 {
		return 0
	}
	aw, bw := a.Words[:n], b.Words[:n]
	am, bm := a.Mask, b.Mask

	pop := 0
	for i := 0; i < n-1; i++ {
		v := op(aw[i]^am, bw[i]^bm) ^ neg
		dst[i] = v
		pop += bits.OnesCount64(v)
	}

	v := (op(aw[n-1]^am, bw[n-1]^bm) ^ neg) & last
	dst[n-1] = v
	return uint64(pop + bits.OnesCount64(v))
}

func fuse3Generic(dst []uint64, a, b, c Operand, neg, last uint64, op Op3) uint64 {
	n := len(dst)
	if n == 0 {
		return 0
	}
	aw, bw, cw := a.Words[:n], b.Words[:n], c.Words[:n]
	am, bm, cm := a.Mask, b.Mask, c.Mask

	pop := 0
	for i := 0; i < n-1; i++ {
		v := op(aw[i]^am, bw[i]^bm, cw[i]^cm) ^ neg
		dst[i] = v
		pop += bits.OnesCount64(v)
	}

	v := (op(aw[n-1]^am, bw[n-1]^bm, cw[n-1]^cm) ^ neg) & last
	dst[n-1] = v
	return uint64(pop + bits.OnesCount64(v))
}

func count2Generic(n int, a, b Operand, neg, last uint64, op Op2) uint64 {
	if n == 0 {
		return 0
	}
	aw, bw := a.Words[:n], b.Words[:n]
	am, bm := a.Mask, b.Mask

	pop := 0
	for i := 0; i < n-1; i++ {
		pop += bits.OnesCount64(op(aw[i]^am, bw[i]^bm) ^ neg)
	}
	pop += bits.OnesCount64((op(aw[n-1]^am, bw[n-1]^bm) ^ neg) & last)
	return uint64(pop)
}

func count3Generic(n int, a, b, c Operand, neg, last uint64, op Op3) uint64 {
	if n == 0 {
		return 0
	}
	aw, bw, cw := a.Words[:n], b.Words[:n], c.Words[:n]
	am, bm, cm := a.Mask, b.Mask, c.Mask

	pop := 0
	for i := 0; i < n-1; i++ {
		pop += bits.OnesCount64(op(aw[i]^am, bw[i]^bm, cw[i]^cm) ^ neg)
	}
	pop += bits.OnesCount64((op(aw[n-1]^am, bw[n-1]^bm, cw[n-1]^cm) ^ neg) & last)
	return uint64(pop)
}

func popcountGeneric(words []uint64) uint64 {
	pop := 0
	for _, w := range words {
		pop += bits.OnesCount64(w)
	}
	return uint64(pop)
}

// ==============================================================================
// Unrolled implementations
// ==============================================================================
//
// Four independent accumulators break the dependency chain on the popcount
// sum so consecutive POPCNT/CNT instructions can issue in parallel.

func fuse2Unrolled(dst []uint64, a, b Operand, neg, last uint64, op Op2) uint64 {
	n := len(dst)
	if n == 0 {
		return 0
	}
	aw, bw := a.Words[:n], b.Words[:n]
	am, bm := a.Mask, b.Mask
	body := n - 1

	var p0, p1, p2, p3 int
	i := 0
	for ; i+4 <= body; i += 4 {
		v0 := op(aw[i]^am, bw[i]^bm) ^ neg
		v1 := op(aw[i+1]^am, bw[i+1]^bm) ^ neg
		v2 := op(aw[i+2]^am, bw[i+2]^bm) ^ neg
		v3 := op(aw[i+3]^am, bw[i+3]^bm) ^ neg
		dst[i], dst[i+1], dst[i+2], dst[i+3] = v0, v1, v2, v3
		p0 += bits.OnesCount64(v0)
		p1 += bits.OnesCount64(v1)
		p2 += bits.OnesCount64(v2)
		p3 += bits.OnesCount64(v3)
	}
	for ; i < body; i++ {
		v := op(aw[i]^am, bw[i]^bm) ^ neg
		dst[i] = v
		p0 += bits.OnesCount64(v)
	}

	v := (op(aw[body]^am, bw[body]^bm) ^ neg) & last
	dst[body] = v
	return uint64(p0 + p1 + p2 + p3 + bits.OnesCount64(v))
}

func fuse3Unrolled(dst []uint64, a, b, c Operand, neg, last uint64, op Op3) uint64 {
	n := len(dst)
	if n == 0 {
		return 0
	}
	aw, bw, cw := a.Words[:n], b.Words[:n], c.Words[:n]
	am, bm, cm := a.Mask, b.Mask, c.Mask
	body := n - 1

	var p0, p1, p2, p3 int
	i := 0
	for ; i+4 <= body; i += 4 {
		v0 := op(aw[i]^am, bw[i]^bm, cw[i]^cm) ^ neg
		v1 := op(aw[i+1]^am, bw[i+1]^bm, cw[i+1]^cm) ^ neg
		v2 := op(aw[i+2]^am, bw[i+2]^bm, cw[i+2]^cm) ^ neg
		v3 := op(aw[i+3]^am, bw[i+3]^bm, cw[i+3]^cm) ^ neg
		dst[i], dst[i+1], dst[i+2], dst[i+3] = v0, v1, v2, v3
		p0 += bits.OnesCount64(v0)
		p1 += bits.OnesCount64(v1)
		p2 += bits.OnesCount64(v2)
		p3 += bits.OnesCount64(v3)
	}
	for ; i < body; i++ {
		v := op(aw[i]^am, bw[i]^bm, cw[i]^cm) ^ neg
		dst[i] = v
		p0 += bits.OnesCount64(v)
	}

	v := (op(aw[body]^am, bw[body]^bm, cw[body]^cm) ^ neg) & last
	dst[body] = v
	return uint64(p0 + p1 + p2 + p3 + bits.OnesCount64(v))
}

func count2Unrolled(n int, a, b Operand, neg, last uint64, op Op2) uint64 {
	if n == 0 {
		return 0
	}
	aw, bw := a.Words[:n], b.Words[:n]
	am, bm := a.Mask, b.Mask
	body := n - 1

	var p0, p1, p2, p3 int
	i := 0
	for ; i+4 <= body; i += 4 {
		p0 += bits.OnesCount64(op(aw[i]^am, bw[i]^bm) ^ neg)
		p1 += bits.OnesCount64(op(aw[i+1]^am, bw[i+1]^bm) ^ neg)
		p2 += bits.OnesCount64(op(aw[i+2]^am, bw[i+2]^bm) ^ neg)
		p3 += bits.OnesCount64(op(aw[i+3]^am, bw[i+3]^bm) ^ neg)
	}
	for ; i < body; i++ {
		p0 += bits.OnesCount64(op(aw[i]^am, bw[i]^bm) ^ neg)
	}
	p0 += bits.OnesCount64((op(aw[body]^am, bw[body]^bm) ^ neg) & last)
	return uint64(p0 + p1 + p2 + p3)
}

func count3Unrolled(n int, a, b, c Operand, neg, last uint64, op Op3) uint64 {
	if n == 0 {
		return 0
	}
	aw, bw, cw := a.Words[:n], b.Words[:n], c.Words[:n]
	am, bm, cm := a.Mask, b.Mask, c.Mask
	body := n - 1

	var p0, p1, p2, p3 int
	i := 0
	for ; i+4 <= body; i += 4 {
		p0 += bits.OnesCount64(op(aw[i]^am, bw[i]^bm, cw[i]^cm) ^ neg)
		p1 += bits.OnesCount64(op(aw[i+1]^am, bw[i+1]^bm, cw[i+1]^cm) ^ neg)
		p2 += bits.OnesCount64(op(aw[i+2]^am, bw[i+2]^bm, cw[i+2]^cm) ^ neg)
		p3 += bits.OnesCount64(op(aw[i+3]^am, bw[i+3]^bm, cw[i+3]^cm) ^ neg)
	}
	for ; i < body; i++ {
		p0 += bits.OnesCount64(op(aw[i]^am, bw[i]^bm, cw[i]^cm) ^ neg)
	}
	p0 += bits.OnesCount64((op(aw[body]^am, bw[body]^bm, cw[body]^cm) ^ neg) & last)
	return uint64(p0 + p1 + p2 + p3)
}

func popcountUnrolled(words []uint64) uint64 {
	var p0, p1, p2, p3 int
	i := 0
	for ; i+4 <= len(words); i += 4 {
		p0 += bits.OnesCount64(words[i])
		p1 += bits.OnesCount64(words[i+1])
		p2 += bits.OnesCount64(words[i+2])
		p3 += bits.OnesCount64(words[i+3])
	}
	for ; i < len(words); i++ {
		p0 += bits.OnesCount64(words[i])
	}
	return uint64(p0 + p1 + p2 + p3)
}
