// Package simd provides the word kernels behind bitset operators.
//
// # Kernels
//
//   - Fuse2 / Fuse3: one pass that combines two or three masked operands,
//     stores the result, masks the final bucket and returns the popcount
//   - Count2 / Count3: the same reduction without storing the result
//   - PopcountWords, FillWords, EqualWords
//
// # Kernel Selection
//
// Runtime CPU feature detection picks between a scalar loop and a 4-way
// unrolled loop with independent popcount accumulators (which lets the
// hardware POPCNT/CNT units overlap). Set TRUTHBITS_SIMD=generic to force
// the scalar loop.
package simd
