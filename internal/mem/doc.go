// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Word buffers backing bitsets start on a 64-byte boundary so that fused
// word loops never straddle a cache line at the first bucket.
package mem
