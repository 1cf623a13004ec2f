package truthbits

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/truthbits/bitset"
	"github.com/hupe1980/truthbits/blobstore"
	"github.com/hupe1980/truthbits/codec"
	"github.com/hupe1980/truthbits/internal/hash"
	"github.com/hupe1980/truthbits/internal/resource"
)

// Batch is one slice of the truth table handed to a BatchFunc.
type Batch struct {
	// Index is the batch number within the whole table.
	Index uint64
	// Status is the hex row index of the first row.
	Status string
	// Rows is the number of rows (the size of every free column).
	Rows uint64
	// Columns has one entry per input. Kept inputs hold whatever the
	// caller set with SetColumn. The handles are reused by the next batch:
	// Share or Clone what must outlive the call.
	Columns []*bitset.Bitset
}

// BatchFunc consumes one batch. Returning ErrStop ends the run cleanly.
type BatchFunc func(ctx context.Context, b *Batch) error

// Generator drives an Enumerator over a truth table, hands each batch to a
// callback and optionally persists it.
type Generator struct {
	inputs int
	keep   []int
	opts   options
	logger *Logger
	enum   *bitset.Enumerator
	cols   []*bitset.Bitset
	res    *resource.Controller
}

// NewGenerator creates a generator over inputs variables.
func NewGenerator(inputs int, optFns ...Option) (*Generator, error) {
	opts := applyOptions(optFns)

	if inputs < 0 {
		return nil, &ErrInvalidInputs{Inputs: inputs, UseBits: opts.useBits}
	}

	var flags []bool
	keep := slices.Clone(opts.keep)
	slices.Sort(keep)
	keep = slices.Compact(keep)
	if len(keep) > 0 {
		flags = make([]bool, inputs)
		for _, i := range keep {
			if i < 0 || i >= inputs {
				return nil, &ErrInvalidInputs{Inputs: inputs, UseBits: opts.useBits,
					cause: fmt.Errorf("%w: keep index %d", bitset.ErrInvalidArgument, i)}
			}
			flags[i] = true
		}
	}

	useBits := opts.useBits
	if useBits < 0 {
		useBits = min(inputs-len(keep), DefaultUseBits)
	}
	enum, err := bitset.NewEnumerator(inputs, useBits, flags)
	if err != nil {
		return nil, &ErrInvalidInputs{Inputs: inputs, UseBits: useBits, cause: err}
	}

	logger := opts.logger.WithInputs(inputs, useBits)
	if opts.store != nil {
		logger = logger.WithRun(opts.prefix)
	}

	res := resource.NewController(resource.Config{
		MemoryLimitBytes:   opts.uploadMemory,
		IOLimitBytesPerSec: opts.uploadRate,
	})

	return &Generator{
		inputs: inputs,
		keep:   keep,
		opts:   opts,
		logger: logger,
		enum:   enum,
		cols:   make([]*bitset.Bitset, inputs),
		res:    res,
	}, nil
}

// Inputs returns the number of input variables.
func (g *Generator) Inputs() int { return g.inputs }

// UseBits returns log2 of the rows per batch.
func (g *Generator) UseBits() int { return g.enum.UseBits() }

// Status returns the hex row index of the next batch.
func (g *Generator) Status() string { return g.enum.Status() }

// Done reports whether every batch has been produced.
func (g *Generator) Done() bool { return g.enum.Done() }

// SetColumn places a caller-owned column for kept input i. The generator
// holds a share of b until Close.
func (g *Generator) SetColumn(i int, b *bitset.Bitset) error {
	if !slices.Contains(g.keep, i) {
		return fmt.Errorf("%w: input %d is not kept", bitset.ErrInvalidArgument, i)
	}
	if g.cols[i] != nil {
		g.cols[i].Release()
	}
	g.cols[i] = b.Share()
	return nil
}

// Close releases the column handles held by the generator.
func (g *Generator) Close() {
	for i, c := range g.cols {
		if c != nil {
			c.Release()
			g.cols[i] = nil
		}
	}
}

// batchName zero-pads the status so that names sort in row order.
func (g *Generator) batchName(status []byte) string {
	s := hex.EncodeToString(status)
	if width := max(2, (g.enum.Free()+7)/8*2); len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return "batch-" + s + ".tbb"
}

func (g *Generator) newManifest() *Manifest {
	now := time.Now().UTC()
	return &Manifest{
		Version:     manifestVersion,
		Inputs:      g.inputs,
		UseBits:     g.enum.UseBits(),
		Keep:        g.keep,
		Compression: g.opts.compression.String(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// prepare returns the manifest the run appends to, seeking the enumerator
// when a stored run is resumed.
func (g *Generator) prepare(ctx context.Context) (*Manifest, error) {
	if !g.opts.resume || g.opts.store == nil {
		return g.newManifest(), nil
	}

	m, err := LoadManifest(ctx, g.opts.store, g.opts.prefix)
	if errors.Is(err, blobstore.ErrNotFound) {
		return g.newManifest(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := m.check(g.inputs, g.enum.UseBits(), g.keep, g.opts.compression); err != nil {
		return nil, err
	}
	next, err := m.NextStatus()
	if err != nil {
		return nil, err
	}

	g.enum.Seek(next)
	g.logger.LogResume(ctx, g.enum.Status(), len(m.Batches))
	return m, nil
}

func (g *Generator) encode(status []byte) (BatchEntry, []byte, error) {
	b := &codec.Batch{
		Inputs:  g.inputs,
		UseBits: g.enum.UseBits(),
		Status:  status,
		Columns: make([]codec.Column, g.inputs),
	}
	for i, c := range g.cols {
		if slices.Contains(g.keep, i) {
			b.Columns[i].Kept = true
			continue
		}
		b.Columns[i].Bits = c
	}

	data, err := codec.Marshal(b, g.opts.compression)
	if err != nil {
		return BatchEntry{}, nil, err
	}
	return BatchEntry{
		Name:   g.batchName(status),
		Status: formatStatus(status),
		Size:   int64(len(data)),
		CRC32C: hash.Format(hash.CRC32C(data)),
	}, data, nil
}

func (g *Generator) persist(ctx context.Context, name string, data []byte) error {
	if err := g.res.AcquireIO(ctx, len(data)); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}

	start := time.Now()
	err := g.opts.store.Put(ctx, name, data)
	g.opts.metricsCollector.RecordPersist(int64(len(data)), time.Since(start), err)
	g.logger.LogPersist(ctx, name, int64(len(data)), err)
	if err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

func (g *Generator) checkpoint(ctx context.Context, m *Manifest) error {
	start := time.Now()
	size, err := saveManifest(ctx, g.opts.store, g.opts.prefix, g.opts.manifestCodec, m)
	g.opts.metricsCollector.RecordPersist(size, time.Since(start), err)
	g.logger.LogPersist(ctx, g.opts.prefix+ManifestName, size, err)
	return err
}

// Run produces batches until the table is exhausted, fn returns an error
// (ErrStop ends the run without one) or ctx is canceled. fn may be nil when
// a store is configured. With a store, every batch is written under the
// prefix and the manifest is saved at checkpoints and at the end; the
// returned manifest describes the run either way.
func (g *Generator) Run(ctx context.Context, fn BatchFunc) (*Manifest, error) {
	start := time.Now()

	m, err := g.prepare(ctx)
	if err != nil {
		return nil, err
	}
	next := g.enum.StatusBytes()

	var (
		group  *errgroup.Group
		gctx   context.Context
		stored int
		runErr error
	)
	// Canceling ctx stops new batches; writes in flight still complete so
	// that the final manifest lists them.
	newGroup := func() {
		group, gctx = errgroup.WithContext(context.WithoutCancel(ctx))
		group.SetLimit(g.opts.uploadConcurrency)
	}
	newGroup()

	progress := rate.Sometimes{Interval: g.opts.progressInterval}
	rows := g.enum.Rows()
	first := g.enum.Batches()

	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if gctx.Err() != nil {
			break // a batch write failed; Wait reports it
		}

		batchStart := time.Now()
		status := g.enum.StatusBytes()
		hexStatus := g.enum.Status()
		if !g.enum.Next(g.cols) {
			break
		}

		var cbErr error
		if fn != nil {
			cbErr = fn(ctx, &Batch{
				Index:   g.enum.Batches() - 1,
				Status:  hexStatus,
				Rows:    rows,
				Columns: g.cols,
			})
		}
		stop := errors.Is(cbErr, ErrStop)
		if stop {
			cbErr = nil
		}
		g.opts.metricsCollector.RecordBatch(rows, time.Since(batchStart), cbErr)
		g.logger.LogBatch(ctx, hexStatus, rows, cbErr)
		if cbErr != nil {
			runErr = cbErr
			break
		}

		if g.opts.store != nil {
			entry, data, err := g.encode(status)
			if err != nil {
				runErr = err
				break
			}
			if err := g.res.AcquireMemory(ctx, entry.Size); err != nil {
				runErr = err
				break
			}
			m.Batches = append(m.Batches, entry)
			group.Go(func() error {
				defer g.res.ReleaseMemory(entry.Size)
				return g.persist(gctx, g.opts.prefix+entry.Name, data)
			})
			stored++
		}
		next = g.enum.StatusBytes()

		if g.opts.store != nil && g.opts.checkpointEvery > 0 && stored%g.opts.checkpointEvery == 0 {
			if err := group.Wait(); err != nil {
				runErr = err
				break
			}
			m.setNext(next)
			m.Done = g.enum.Done()
			if err := g.checkpoint(ctx, m); err != nil {
				runErr = err
				break
			}
			newGroup()
		}

		if g.opts.progressInterval > 0 {
			progress.Do(func() {
				elapsed := time.Since(start)
				done := float64(g.enum.Batches()-first) * float64(rows)
				g.logger.LogProgress(ctx, g.enum.Batches(), g.enum.Status(), elapsed, done/max(elapsed.Seconds(), 1e-9),
					g.res.MemoryUsage(), g.res.MemoryLimit())
			})
		}

		if stop {
			break
		}
	}

	uploadErr := group.Wait()
	if runErr == nil {
		runErr = uploadErr
	}

	m.setNext(next)
	m.Done = g.enum.Done() && runErr == nil
	if g.opts.store != nil && uploadErr == nil {
		if err := g.checkpoint(context.WithoutCancel(ctx), m); err != nil && runErr == nil {
			runErr = err
		}
	}

	g.logger.LogDone(ctx, g.enum.Batches()-first, m.Done, time.Since(start), runErr)
	return m, runErr
}
