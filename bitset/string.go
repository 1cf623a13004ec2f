package bitset

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// String returns the logical value in lowercase hex, most significant bucket
// first, without leading zeros. Invalid, empty and all-zero bitsets print "0".
func (b *Bitset) String() string {
	if !b.Valid() || b.AllZero() {
		return "0"
	}

	var sb strings.Builder
	top := len(b.buf.words) - 1
	for top > 0 && b.Bucket(top) == 0 {
		top--
	}
	sb.Grow((top + 1) * 16)
	sb.WriteString(strconv.FormatUint(b.Bucket(top), 16))
	for i := top - 1; i >= 0; i-- {
		s := strconv.FormatUint(b.Bucket(i), 16)
		sb.WriteString(strings.Repeat("0", 16-len(s)))
		sb.WriteString(s)
	}
	return sb.String()
}

// BitString returns one '0' or '1' per position, position 0 first.
func (b *Bitset) BitString() string {
	if !b.Valid() {
		return ""
	}
	out := make([]byte, b.size)
	for i := range out {
		out[i] = '0'
	}
	b.ForEach(func(pos uint64) bool {
		out[pos] = '1'
		return true
	})
	return string(out)
}

// ParseHex decodes the output of String into a bitset of size bits.
// An optional "0x" prefix is accepted.
func ParseHex(s string, size uint64) (*Bitset, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidHex)
	}

	b := New(size)
	n := len(s)
	for d := 0; d < n; d++ {
		v, ok := hexDigit(s[n-1-d])
		if !ok {
			b.Release()
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidHex, s[n-1-d], n-1-d)
		}
		if v == 0 {
			continue
		}

		low := uint64(d) * 4
		if low+uint64(bits.Len8(v)) > size {
			b.Release()
			return nil, fmt.Errorf("%w: digit %d does not fit %d bits", ErrOverflow, n-1-d, size)
		}
		i := low / WordBits
		b.buf.words[i] |= uint64(v) << (low % WordBits)
		b.buf.pop += uint64(bits.OnesCount8(v))
	}
	return b, nil
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ForEach calls fn for every set position in ascending order until fn
// returns false.
func (b *Bitset) ForEach(fn func(pos uint64) bool) {
	if !b.Valid() {
		return
	}
	for i := range b.buf.words {
		w := b.Bucket(i)
		for w != 0 {
			t := bits.TrailingZeros64(w)
			if !fn(uint64(i)*WordBits + uint64(t)) {
				return
			}
			w &= w - 1
		}
	}
}
