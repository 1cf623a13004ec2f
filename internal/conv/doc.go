// Package conv converts between integer widths with range checks.
//
// The codec uses it for length prefixes and counts read from, or written
// to, fixed-width fields. Conversions that are bounded by construction
// (loop indices, masked values) use plain casts instead.
package conv
