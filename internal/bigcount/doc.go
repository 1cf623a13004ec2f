// Package bigcount implements the unbounded counter that drives
// truth-table enumeration past 64 input variables.
//
// A Counter is a little-endian slice of 64-bit limbs. It only supports the
// operations enumeration needs: adding a power of two, testing a bit,
// reporting its bit length, and converting to and from the big-endian
// bytes and hex strings that run manifests record. Cmp orders statuses.
package bigcount
