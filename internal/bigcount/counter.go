package bigcount

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ErrSyntax is returned by SetString for input that is not hexadecimal.
var ErrSyntax = errors.New("bigcount: invalid hex")

const limbBits = 64

// Counter is an unsigned arbitrary-precision integer. The zero value is 0.
type Counter struct {
	limbs []uint64 // little-endian, no trailing zero limbs
}

// Reset sets c to zero, keeping the allocated limbs.
func (c *Counter) Reset() {
	c.limbs = c.limbs[:0]
}

// IsZero reports whether c == 0.
func (c *Counter) IsZero() bool {
	return len(c.limbs) == 0
}

// Bit returns bit k of c.
func (c *Counter) Bit(k int) bool {
	i := k / limbBits
	if k < 0 || i >= len(c.limbs) {
		return false
	}
	return c.limbs[i]>>(uint(k)%limbBits)&1 == 1
}

// BitLen returns the number of bits needed to represent c; 0 for zero.
func (c *Counter) BitLen() int {
	if len(c.limbs) == 0 {
		return 0
	}
	top := len(c.limbs) - 1
	return top*limbBits + bits.Len64(c.limbs[top])
}

// AddPow2 adds 2^k to c, growing it as needed.
func (c *Counter) AddPow2(k int) {
	if k < 0 {
		panic("bigcount: negative exponent")
	}
	i := k / limbBits
	for len(c.limbs) <= i {
		c.limbs = append(c.limbs, 0)
	}

	var carry uint64
	c.limbs[i], carry = bits.Add64(c.limbs[i], 1<<(uint(k)%limbBits), 0)
	for i++; carry != 0; i++ {
		if i == len(c.limbs) {
			c.limbs = append(c.limbs, carry)
			return
		}
		c.limbs[i], carry = bits.Add64(c.limbs[i], 0, carry)
	}
}

// Cmp compares c and d and returns -1, 0 or +1.
func (c *Counter) Cmp(d *Counter) int {
	if len(c.limbs) != len(d.limbs) {
		if len(c.limbs) < len(d.limbs) {
			return -1
		}
		return 1
	}
	for i := len(c.limbs) - 1; i >= 0; i-- {
		switch {
		case c.limbs[i] < d.limbs[i]:
			return -1
		case c.limbs[i] > d.limbs[i]:
			return 1
		}
	}
	return 0
}

// Bytes returns the big-endian byte representation of c without leading
// zero bytes. Zero encodes as an empty slice.
func (c *Counter) Bytes() []byte {
	n := (c.BitLen() + 7) / 8
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = byte(c.limbs[i/8] >> (uint(i%8) * 8))
	}
	return out
}

// SetBytes sets c from a big-endian byte slice and returns c.
func (c *Counter) SetBytes(b []byte) *Counter {
	c.limbs = c.limbs[:0]
	for i := 0; i < len(b); i++ {
		limb := i / 8
		for len(c.limbs) <= limb {
			c.limbs = append(c.limbs, 0)
		}
		c.limbs[limb] |= uint64(b[len(b)-1-i]) << (uint(i%8) * 8)
	}
	c.trim()
	return c
}

// SetString sets c from hexadecimal s, the format of String. Leading zeros
// are accepted.
func (c *Counter) SetString(s string) (*Counter, error) {
	c.limbs = c.limbs[:0]
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrSyntax)
	}

	n := len(s)
	for d := 0; d < n; d++ {
		v, err := strconv.ParseUint(s[n-1-d:n-d], 16, 8)
		if err != nil {
			c.limbs = c.limbs[:0]
			return nil, fmt.Errorf("%w: %q at offset %d", ErrSyntax, s[n-1-d], n-1-d)
		}
		limb := d / 16
		for len(c.limbs) <= limb {
			c.limbs = append(c.limbs, 0)
		}
		c.limbs[limb] |= v << (uint(d%16) * 4)
	}
	c.trim()
	return c, nil
}

func (c *Counter) trim() {
	for len(c.limbs) > 0 && c.limbs[len(c.limbs)-1] == 0 {
		c.limbs = c.limbs[:len(c.limbs)-1]
	}
}

// String returns c in lowercase hexadecimal without a prefix.
func (c *Counter) String() string {
	if c.IsZero() {
		return "0"
	}
	var sb strings.Builder
	top := len(c.limbs) - 1
	sb.WriteString(strconv.FormatUint(c.limbs[top], 16))
	for i := top - 1; i >= 0; i-- {
		s := strconv.FormatUint(c.limbs[i], 16)
		sb.WriteString(strings.Repeat("0", 16-len(s)))
		sb.WriteString(s)
	}
	return sb.String()
}
