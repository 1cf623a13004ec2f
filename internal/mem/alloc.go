package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of word buffers (one cache line, AVX-512 friendly).
const Alignment = 64

// wordSize is the size of a uint64 in bytes.
const wordSize = 8

// AllocWords allocates a zeroed uint64 slice of n words with 64-byte alignment.
// Returns nil for n <= 0.
func AllocWords(n int) []uint64 {
	if n <= 0 {
		return nil
	}

	// Over-allocate in words rather than bytes so the backing array is
	// word-typed and the GC scans it as pointer-free memory.
	const slack = Alignment / wordSize
	buf := make([]uint64, n+slack)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := ((Alignment - (addr & (Alignment - 1))) & (Alignment - 1)) / wordSize

	return buf[offset : offset+uintptr(n) : offset+uintptr(n)]
}
