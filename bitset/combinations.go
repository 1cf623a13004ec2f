package bitset

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/hupe1980/truthbits/internal/simd"
)

// MaxUseBits bounds the row count of a generated column (2^32 bits = 512 MiB).
const MaxUseBits = 32

// wordPatterns[k] has bit r set exactly when bit k of r is set, for r < 64.
var wordPatterns = [6]uint64{
	0xAAAAAAAAAAAAAAAA,
	0xCCCCCCCCCCCCCCCC,
	0xF0F0F0F0F0F0F0F0,
	0xFF00FF00FF00FF00,
	0xFFFF0000FFFF0000,
	0xFFFFFFFF00000000,
}

// columnJob describes one generated column. Row r of the column is bit k of r
// when k < useBits; otherwise every row equals fill.
type columnJob struct {
	col  *Bitset
	k    int
	fill bool
}

// BuildCombinations writes the truth-table columns of inputs variables over
// 2^useBits rows. Variable i goes to dst[positions[i]] (dst[i] when positions
// is nil); row r of variable i is bit inputs-1-i of r, so variable 0 is the
// most significant. Variables with i < inputs-useBits are all-zero
// placeholders. A negative useBits means inputs.
//
// Existing handles in dst are reused when they own their buffer and
// released otherwise. Columns are built concurrently.
func BuildCombinations(dst []*Bitset, inputs, useBits int, positions []int) error {
	if useBits < 0 {
		useBits = inputs
	}
	if err := validateCombinations(len(dst), inputs, useBits, positions); err != nil {
		return err
	}

	jobs := make([]columnJob, inputs)
	for i := 0; i < inputs; i++ {
		p := i
		if positions != nil {
			p = positions[i]
		}
		if dst[p] == nil {
			dst[p] = &Bitset{}
		}
		jobs[i] = columnJob{col: dst[p], k: inputs - 1 - i}
	}

	buildColumns(jobs, useBits)
	return nil
}

func validateCombinations(n, inputs, useBits int, positions []int) error {
	switch {
	case inputs < 0:
		return fmt.Errorf("%w: inputs %d", ErrInvalidArgument, inputs)
	case useBits > inputs:
		return fmt.Errorf("%w: useBits %d exceeds inputs %d", ErrInvalidArgument, useBits, inputs)
	case useBits > MaxUseBits:
		return fmt.Errorf("%w: useBits %d exceeds %d", ErrInvalidArgument, useBits, MaxUseBits)
	case n < inputs:
		return fmt.Errorf("%w: %d outputs for %d inputs", ErrInvalidArgument, n, inputs)
	}

	if positions == nil {
		return nil
	}
	if len(positions) != inputs {
		return fmt.Errorf("%w: %d positions for %d inputs", ErrInvalidArgument, len(positions), inputs)
	}
	seen := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		if p < 0 || p >= n {
			return fmt.Errorf("%w: position %d out of range", ErrInvalidArgument, p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate position %d", ErrInvalidArgument, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// buildColumns fills every job's column, at most GOMAXPROCS at a time.
func buildColumns(jobs []columnJob, useBits int) {
	size := uint64(1) << uint(useBits)

	if len(jobs) == 1 {
		jobs[0].build(size, useBits)
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	for _, job := range jobs {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			job.build(size, useBits)
		}()
	}
	wg.Wait()
}

func (j columnJob) build(size uint64, useBits int) {
	dst, old := j.col.writable(size)
	var pop uint64

	switch {
	case j.k >= useBits:
		if j.fill {
			simd.FillWords(dst, ^uint64(0))
			dst[len(dst)-1] &= j.col.last
			pop = size
		} else {
			simd.FillWords(dst, 0)
		}
	case j.k < len(wordPatterns):
		simd.FillWords(dst, wordPatterns[j.k])
		dst[len(dst)-1] &= j.col.last
		pop = size / 2
	default:
		// Alternating runs of 2^(k-6) zero words and 2^(k-6) one words.
		run := 1 << uint(j.k-6)
		for start := 0; start < len(dst); start += 2 * run {
			simd.FillWords(dst[start:start+run], 0)
			simd.FillWords(dst[start+run:start+2*run], ^uint64(0))
		}
		pop = size / 2
	}

	j.col.commit(pop, old)
}
