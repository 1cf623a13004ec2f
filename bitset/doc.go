// Package bitset provides a fixed-size, reference-counted bit vector built
// for exhaustive Boolean function evaluation.
//
// Architecture:
//   - Shared word buffer with an atomic refcount; Share is O(1) and every
//     mutating method copies the buffer first when it is shared (copy-on-write)
//   - Per-handle flip mask: Not is O(1) and never touches data
//   - Popcount kept current incrementally, so "all zero" and "all one" are
//     O(1) questions
//   - Fused operators (And, Or, Xor, Maj, Ite and their negations) try
//     algebraic shortcuts first, then run a single pass that stores the result
//     and counts it
//
// Used for:
//   - Truth-table columns (BuildCombinations, Enumerator)
//   - Evaluating Boolean circuits one column at a time
//
// A Bitset handle is not safe for concurrent mutation. Share and Release may
// be called from different goroutines, and fully built bitsets may be read
// concurrently.
package bitset
