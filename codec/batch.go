package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/truthbits/bitset"
	"github.com/hupe1980/truthbits/internal/conv"
)

// Batch format:
//
//	header (raw):     magic "TBB1" | version u8 | compression u8
//	body (blocks):    inputs u32 | useBits u8 | statusLen u32 | status bytes |
//	                  columns u32 | per column: kept u8 [| bitset encoding]
//
// The body is cut into framed blocks (see BlockWriter). Kept columns carry
// no data: the enumerator never writes them.
const (
	batchMagic   = "TBB1"
	batchVersion = 1
	headerSize   = len(batchMagic) + 2
)

// Batch is one enumerated slice of a truth table.
type Batch struct {
	Inputs  int
	UseBits int
	// Status is the big-endian index of the batch's first row.
	Status []byte
	// Columns has one entry per input. Kept columns have a nil Bits.
	Columns []Column
}

// Column is the truth-table column of one input.
type Column struct {
	Kept bool
	Bits *bitset.Bitset
}

// Encode writes b to w.
func Encode(w io.Writer, b *Batch, c Compression) error {
	inputs, err := conv.Len(b.Inputs)
	if err != nil {
		return fmt.Errorf("%w: inputs: %v", ErrInvalidFormat, err)
	}
	useBits, err := conv.To[uint8](b.UseBits)
	if err != nil {
		return fmt.Errorf("%w: use bits: %v", ErrInvalidFormat, err)
	}
	statusLen, err := conv.Len(len(b.Status))
	if err != nil {
		return fmt.Errorf("%w: status: %v", ErrInvalidFormat, err)
	}
	if len(b.Columns) != b.Inputs {
		return fmt.Errorf("%w: %d columns for %d inputs", ErrInvalidFormat, len(b.Columns), b.Inputs)
	}

	hdr := append([]byte(batchMagic), batchVersion, byte(c))
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	bw := NewBlockWriter(w, c, DefaultBlockSize)

	var scratch []byte
	scratch = binary.LittleEndian.AppendUint32(scratch, inputs)
	scratch = append(scratch, useBits)
	scratch = binary.LittleEndian.AppendUint32(scratch, statusLen)
	scratch = append(scratch, b.Status...)
	scratch = binary.LittleEndian.AppendUint32(scratch, inputs)
	if _, err := bw.Write(scratch); err != nil {
		return err
	}

	for i, col := range b.Columns {
		if col.Kept {
			if _, err := bw.Write([]byte{1}); err != nil {
				return err
			}
			continue
		}

		enc, err := col.Bits.AppendBinary(append(scratch[:0], 0))
		if err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
		scratch = enc
		if _, err := bw.Write(enc); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Marshal returns the encoding of b.
func Marshal(b *Batch, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a batch written by Encode.
func Unmarshal(data []byte) (*Batch, error) {
	if len(data) < headerSize || string(data[:len(batchMagic)]) != batchMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	if v := data[len(batchMagic)]; v != batchVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, v)
	}
	c := Compression(data[len(batchMagic)+1])
	if c > CompressionZstd {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidFormat, c)
	}

	body, err := DecompressAll(data[headerSize:], c)
	if err != nil {
		return nil, err
	}
	return decodeBody(body)
}

// Decode reads one batch from r.
func Decode(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// CompressionOf reports the compression recorded in an encoded batch header.
func CompressionOf(data []byte) (Compression, error) {
	if len(data) < headerSize || string(data[:len(batchMagic)]) != batchMagic {
		return CompressionNone, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	return Compression(data[len(batchMagic)+1]), nil
}

type bodyReader struct {
	data []byte
	err  error
}

func (r *bodyReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data) < n {
		r.err = fmt.Errorf("%w: truncated body", ErrInvalidFormat)
		return nil
	}
	out := r.data[:n]
	r.data = r.data[n:]
	return out
}

func (r *bodyReader) u8() byte {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *bodyReader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func decodeBody(body []byte) (*Batch, error) {
	r := &bodyReader{data: body}

	b := &Batch{}
	b.Inputs = int(r.u32())
	b.UseBits = int(r.u8())
	if status := r.take(int(r.u32())); status != nil {
		b.Status = append([]byte(nil), status...)
	}
	ncols := int(r.u32())
	if r.err != nil {
		return nil, r.err
	}
	// Every column takes at least its kept flag byte.
	if ncols > len(r.data) {
		return nil, fmt.Errorf("%w: %d columns in %d bytes", ErrInvalidFormat, ncols, len(r.data))
	}
	if ncols != b.Inputs {
		return nil, fmt.Errorf("%w: %d columns for %d inputs", ErrInvalidFormat, ncols, b.Inputs)
	}

	b.Columns = make([]Column, ncols)
	for i := range b.Columns {
		if r.u8() == 1 {
			b.Columns[i].Kept = true
			continue
		}

		hdr := r.take(8)
		if r.err != nil {
			return nil, r.err
		}
		size := binary.LittleEndian.Uint64(hdr)
		if size > bitset.MaxEncodedSize {
			return nil, fmt.Errorf("%w: column %d size %d", ErrInvalidFormat, i, size)
		}
		words := r.take(8 * int((size+63)/64))
		if r.err != nil {
			return nil, r.err
		}

		bits := &bitset.Bitset{}
		if err := bits.UnmarshalBinary(append(append([]byte(nil), hdr...), words...)); err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		b.Columns[i].Bits = bits
	}

	if len(r.data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidFormat, len(r.data))
	}
	return b, nil
}

// Release drops the batch's column handles.
func (b *Batch) Release() {
	for i := range b.Columns {
		if b.Columns[i].Bits != nil {
			b.Columns[i].Bits.Release()
			b.Columns[i].Bits = nil
		}
	}
}
