package bitset

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/truthbits/internal/simd"
)

// MaxEncodedSize bounds the size field accepted when decoding.
const MaxEncodedSize = 1 << 40

// EncodedLen returns the length of the binary encoding of b.
func (b *Bitset) EncodedLen() int {
	return 8 + 8*b.Buckets()
}

// AppendBinary appends the binary encoding of b to dst: the size as a
// little-endian uint64, then each logical bucket.
func (b *Bitset) AppendBinary(dst []byte) ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: invalid bitset", ErrInvalidEncoding)
	}
	dst = binary.LittleEndian.AppendUint64(dst, b.size)
	for i := range b.buf.words {
		dst = binary.LittleEndian.AppendUint64(dst, b.Bucket(i))
	}
	return dst, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *Bitset) MarshalBinary() ([]byte, error) {
	return b.AppendBinary(make([]byte, 0, b.EncodedLen()))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver's
// previous buffer is released.
func (b *Bitset) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: short header", ErrInvalidEncoding)
	}
	size := binary.LittleEndian.Uint64(data)
	if size > MaxEncodedSize {
		return fmt.Errorf("%w: size %d", ErrInvalidEncoding, size)
	}
	n := bucketsFor(size)
	if len(data) != 8+8*n {
		return fmt.Errorf("%w: %d bytes for %d buckets", ErrInvalidEncoding, len(data), n)
	}

	b.decode(size, data[8:])
	return nil
}

// WriteTo writes the binary encoding of b to w.
func (b *Bitset) WriteTo(w io.Writer) (int64, error) {
	data, err := b.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadFrom reads one binary encoding from r into b.
func (b *Bitset) ReadFrom(r io.Reader) (int64, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	n := int64(8)

	size := binary.LittleEndian.Uint64(hdr[:])
	if size > MaxEncodedSize {
		return n, fmt.Errorf("%w: size %d", ErrInvalidEncoding, size)
	}

	body := make([]byte, 8*bucketsFor(size))
	m, err := io.ReadFull(r, body)
	n += int64(m)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return n, err
	}

	b.decode(size, body)
	return n, nil
}

func (b *Bitset) decode(size uint64, body []byte) {
	if b.buf != nil {
		b.buf.release()
	}
	*b = Bitset{
		buf:  newBuffer(bucketsFor(size), false),
		size: size,
		last: lastMaskFor(size),
	}
	for i := range b.buf.words {
		b.buf.words[i] = binary.LittleEndian.Uint64(body[8*i:])
	}
	b.fixLast(false)
	b.buf.pop = simd.PopcountWords(b.buf.words)
}
