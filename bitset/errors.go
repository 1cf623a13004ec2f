package bitset

import "errors"

var (
	// ErrInvalidArgument is returned when a generator argument is out of range.
	ErrInvalidArgument = errors.New("bitset: invalid argument")

	// ErrOverflow is returned when a position does not fit the target size.
	ErrOverflow = errors.New("bitset: position out of range")

	// ErrInvalidHex is returned by ParseHex for malformed input.
	ErrInvalidHex = errors.New("bitset: invalid hex string")

	// ErrInvalidEncoding is returned when binary input is truncated or corrupt.
	ErrInvalidEncoding = errors.New("bitset: invalid encoding")
)
