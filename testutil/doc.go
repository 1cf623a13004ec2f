// Package testutil provides testing utilities for truthbits.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded random bitsets, the boundary sizes that exercise the
// last-bucket mask, and brute-force oracles built on
// github.com/bits-and-blooms/bitset.
//
// # Random Bitsets
//
//	rng := testutil.NewRNG(seed)
//	a := rng.Bitset(129)
//	words := rng.Words(3)
//
// # Oracles
//
//	want := testutil.OracleMaj(a, b, c)
//	ok := testutil.Matches(got, want)
//
// # Truth Tables
//
//	v := testutil.RowValue(inputs, i, row) // value of input i in row
package testutil
