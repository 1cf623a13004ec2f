package bitset

import (
	"fmt"

	"github.com/hupe1980/truthbits/internal/bigcount"
)

// Enumerator steps through every assignment of the free inputs of a Boolean
// function, 2^useBits rows per batch. Inputs flagged in keep are left to the
// caller: their columns are never touched.
//
// The status counter is unbounded, so functions with more than 64 free
// inputs can be enumerated batch by batch.
type Enumerator struct {
	inputs  int
	useBits int
	free    []int // indices of free inputs, ascending
	status  bigcount.Counter
	batches uint64
}

// NewEnumerator returns an enumerator over inputs variables. keep may be nil
// (every input is free) or hold one flag per input. A negative useBits means
// the number of free inputs.
func NewEnumerator(inputs, useBits int, keep []bool) (*Enumerator, error) {
	if inputs < 0 {
		return nil, fmt.Errorf("%w: inputs %d", ErrInvalidArgument, inputs)
	}
	if keep != nil && len(keep) != inputs {
		return nil, fmt.Errorf("%w: %d keep flags for %d inputs", ErrInvalidArgument, len(keep), inputs)
	}

	free := make([]int, 0, inputs)
	for i := 0; i < inputs; i++ {
		if keep == nil || !keep[i] {
			free = append(free, i)
		}
	}

	if useBits < 0 {
		useBits = min(len(free), MaxUseBits)
	}
	if useBits > len(free) {
		return nil, fmt.Errorf("%w: useBits %d exceeds %d free inputs", ErrInvalidArgument, useBits, len(free))
	}
	if useBits > MaxUseBits {
		return nil, fmt.Errorf("%w: useBits %d exceeds %d", ErrInvalidArgument, useBits, MaxUseBits)
	}

	return &Enumerator{inputs: inputs, useBits: useBits, free: free}, nil
}

// Next writes the next batch into dst, which must hold at least Inputs
// handles (nil entries are allocated), and reports whether a batch was
// produced. It returns false once every assignment has been visited.
//
// In a batch starting at status S, row t assigns the free input of rank j
// (in index order) bit free-1-j of S+t.
func (e *Enumerator) Next(dst []*Bitset) bool {
	if e.Done() {
		return false
	}

	nfree := len(e.free)
	jobs := make([]columnJob, nfree)
	for j, input := range e.free {
		if dst[input] == nil {
			dst[input] = &Bitset{}
		}
		k := nfree - 1 - j
		jobs[j] = columnJob{col: dst[input], k: k}
		if k >= e.useBits {
			jobs[j].fill = e.status.Bit(k)
		}
	}

	buildColumns(jobs, e.useBits)

	e.status.AddPow2(e.useBits)
	e.batches++
	return true
}

// Done reports whether the status counter reached 2^Free.
func (e *Enumerator) Done() bool {
	return e.status.BitLen() > len(e.free)
}

// Reset rewinds the enumerator to the first batch.
func (e *Enumerator) Reset() {
	e.status.Reset()
	e.batches = 0
}

// Status returns the counter as lowercase hex: the first row of the next batch.
func (e *Enumerator) Status() string {
	return e.status.String()
}

// StatusBytes returns the counter as big-endian bytes.
func (e *Enumerator) StatusBytes() []byte {
	return e.status.Bytes()
}

// Seek positions the enumerator at the batch containing the big-endian
// row index status. Rows below the batch boundary are discarded.
func (e *Enumerator) Seek(status []byte) {
	var c bigcount.Counter
	c.SetBytes(status)

	e.status.Reset()
	e.batches = 0
	for k := c.BitLen() - 1; k >= e.useBits; k-- {
		if c.Bit(k) {
			e.status.AddPow2(k)
			e.batches += 1 << uint(k-e.useBits) // wraps past 2^64 batches
		}
	}
}

// Batches returns the number of batches produced since creation or Reset.
func (e *Enumerator) Batches() uint64 { return e.batches }

// Inputs returns the number of input variables.
func (e *Enumerator) Inputs() int { return e.inputs }

// Free returns the number of free inputs.
func (e *Enumerator) Free() int { return len(e.free) }

// UseBits returns log2 of the rows per batch.
func (e *Enumerator) UseBits() int { return e.useBits }

// Rows returns the number of rows per batch.
func (e *Enumerator) Rows() uint64 { return 1 << uint(e.useBits) }
