package truthbits_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/truthbits"
	"github.com/hupe1980/truthbits/bitset"
	"github.com/hupe1980/truthbits/blobstore"
	"github.com/hupe1980/truthbits/codec"
)

// rowValue reads input i of the global row (batch status + t) from the
// enumeration order: input 0 is the most significant bit.
func rowValue(global uint64, inputs, i int) bool {
	return global>>uint(inputs-1-i)&1 == 1
}

func TestGenerator_VisitsEveryRowOnce(t *testing.T) {
	const inputs = 5
	gen, err := truthbits.NewGenerator(inputs, truthbits.WithUseBits(3))
	require.NoError(t, err)
	defer gen.Close()
	assert.Equal(t, 3, gen.UseBits())

	seen := make(map[uint64]int)
	var statuses []string
	m, err := gen.Run(context.Background(), func(_ context.Context, b *truthbits.Batch) error {
		statuses = append(statuses, b.Status)
		require.Equal(t, uint64(8), b.Rows)
		for r := uint64(0); r < b.Rows; r++ {
			var global uint64
			for i := 0; i < inputs; i++ {
				global <<= 1
				if b.Columns[i].Get(r) {
					global |= 1
				}
			}
			assert.Equal(t, b.Index*8+r, global)
			seen[global]++
		}
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, seen, 32)
	for row, n := range seen {
		assert.Equal(t, 1, n, "row %d", row)
	}
	assert.Equal(t, []string{"0", "8", "10", "18"}, statuses)
	assert.True(t, m.Done)
	assert.True(t, gen.Done())
	assert.Empty(t, m.Batches, "nothing is stored without a store")
}

func TestGenerator_DefaultUseBits(t *testing.T) {
	gen, err := truthbits.NewGenerator(40)
	require.NoError(t, err)
	assert.Equal(t, truthbits.DefaultUseBits, gen.UseBits())

	gen, err = truthbits.NewGenerator(5, truthbits.WithKeep(0))
	require.NoError(t, err)
	assert.Equal(t, 4, gen.UseBits())
}

func TestGenerator_PersistsBatches(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	metrics := &truthbits.BasicMetricsCollector{}

	gen, err := truthbits.NewGenerator(5,
		truthbits.WithUseBits(3),
		truthbits.WithStore(store),
		truthbits.WithPrefix("run/"),
		truthbits.WithCompression(codec.CompressionZstd),
		truthbits.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer gen.Close()

	var seen [][]string
	m, err := gen.Run(ctx, func(_ context.Context, b *truthbits.Batch) error {
		cols := make([]string, len(b.Columns))
		for i, c := range b.Columns {
			cols[i] = c.BitString()
		}
		seen = append(seen, cols)
		return nil
	})
	require.NoError(t, err)
	require.True(t, m.Done)
	assert.Equal(t, "20", m.Next)
	assert.Equal(t, "zstd", m.Compression)
	assert.Equal(t, codec.Default.Name(), m.Codec)

	names, err := store.List(ctx, "run/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"run/batch-00.tbb",
		"run/batch-08.tbb",
		"run/batch-10.tbb",
		"run/batch-18.tbb",
		"run/manifest.json",
	}, names)

	loaded, err := truthbits.LoadManifest(ctx, store, "run/")
	require.NoError(t, err)
	require.Len(t, loaded.Batches, 4)
	assert.Equal(t, m.Batches, loaded.Batches)

	for i, entry := range loaded.Batches {
		b, err := truthbits.ReadBatch(ctx, store, "run/", entry)
		require.NoError(t, err)
		assert.Equal(t, 5, b.Inputs)
		assert.Equal(t, 3, b.UseBits)
		for c, col := range b.Columns {
			assert.False(t, col.Kept)
			assert.Equal(t, seen[i][c], col.Bits.BitString(), "batch %d column %d", i, c)
		}
		b.Release()
	}

	_, err = truthbits.VerifyRun(ctx, store, "run/")
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.BatchCount)
	assert.Equal(t, uint64(32), stats.BatchRows)
	assert.Equal(t, int64(5), stats.PersistCount, "four batches and the manifest")
	assert.Zero(t, stats.PersistErrors)
}

func TestGenerator_BatchNamesSortInRowOrder(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	gen, err := truthbits.NewGenerator(12, truthbits.WithUseBits(9), truthbits.WithStore(store))
	require.NoError(t, err)
	defer gen.Close()

	m, err := gen.Run(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, e := range m.Batches {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"batch-0000.tbb", "batch-0200.tbb", "batch-0400.tbb", "batch-0600.tbb",
		"batch-0800.tbb", "batch-0a00.tbb", "batch-0c00.tbb", "batch-0e00.tbb",
	}, names)
}

func TestGenerator_KeptColumns(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	gen, err := truthbits.NewGenerator(4,
		truthbits.WithUseBits(2),
		truthbits.WithKeep(1, 1),
		truthbits.WithStore(store),
	)
	require.NoError(t, err)
	defer gen.Close()

	kept := bitset.NewFilled(4, 0x9)
	require.NoError(t, gen.SetColumn(1, kept))
	require.ErrorIs(t, gen.SetColumn(0, kept), bitset.ErrInvalidArgument)

	batches := 0
	m, err := gen.Run(ctx, func(_ context.Context, b *truthbits.Batch) error {
		batches++
		assert.True(t, b.Columns[1].Is(kept), "kept column is left as set")
		assert.Equal(t, "1001", b.Columns[1].BitString())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	assert.Equal(t, []int{1}, m.Keep)
	assert.Equal(t, "1001", kept.BitString())

	b, err := truthbits.ReadBatch(ctx, store, "", m.Batches[0])
	require.NoError(t, err)
	defer b.Release()
	assert.True(t, b.Columns[1].Kept)
	assert.Nil(t, b.Columns[1].Bits)
}

func TestGenerator_Stop(t *testing.T) {
	gen, err := truthbits.NewGenerator(6, truthbits.WithUseBits(2), truthbits.WithStore(blobstore.NewMemoryStore()))
	require.NoError(t, err)
	defer gen.Close()

	m, err := gen.Run(context.Background(), func(_ context.Context, b *truthbits.Batch) error {
		return truthbits.ErrStop
	})
	require.NoError(t, err)
	assert.False(t, m.Done)
	assert.Len(t, m.Batches, 1, "the stopping batch is still stored")
	assert.Equal(t, "4", m.Next)
}

func TestGenerator_CallbackError(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	errBoom := errors.New("boom")

	gen, err := truthbits.NewGenerator(5, truthbits.WithUseBits(3), truthbits.WithStore(store))
	require.NoError(t, err)
	defer gen.Close()

	m, err := gen.Run(ctx, func(_ context.Context, b *truthbits.Batch) error {
		if b.Index == 1 {
			return errBoom
		}
		return nil
	})
	require.ErrorIs(t, err, errBoom)
	assert.False(t, m.Done)
	assert.Len(t, m.Batches, 1)
	assert.Equal(t, "8", m.Next, "the failed batch is produced again on resume")

	loaded, err := truthbits.LoadManifest(ctx, store, "")
	require.NoError(t, err)
	assert.Equal(t, "8", loaded.Next)
}

func TestGenerator_Resume(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	opts := []truthbits.Option{
		truthbits.WithUseBits(3),
		truthbits.WithStore(store),
		truthbits.WithPrefix("n6/"),
		truthbits.WithCheckpointEvery(1),
		truthbits.WithResume(true),
	}

	first, err := truthbits.NewGenerator(6, opts...)
	require.NoError(t, err)
	m, err := first.Run(ctx, func(_ context.Context, b *truthbits.Batch) error {
		if b.Index == 2 {
			return truthbits.ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	first.Close()
	require.Len(t, m.Batches, 3)
	require.False(t, m.Done)

	second, err := truthbits.NewGenerator(6, opts...)
	require.NoError(t, err)
	defer second.Close()

	var indices []uint64
	m, err = second.Run(ctx, func(_ context.Context, b *truthbits.Batch) error {
		indices = append(indices, b.Index)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4, 5, 6, 7}, indices)
	assert.True(t, m.Done)
	assert.Len(t, m.Batches, 8)

	_, err = truthbits.VerifyRun(ctx, store, "n6/")
	require.NoError(t, err)

	// A finished run resumes to nothing.
	third, err := truthbits.NewGenerator(6, opts...)
	require.NoError(t, err)
	defer third.Close()
	calls := 0
	m, err = third.Run(ctx, func(context.Context, *truthbits.Batch) error { calls++; return nil })
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.True(t, m.Done)
}

func TestGenerator_ResumeMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	gen, err := truthbits.NewGenerator(6, truthbits.WithUseBits(3), truthbits.WithStore(store))
	require.NoError(t, err)
	_, err = gen.Run(ctx, nil)
	require.NoError(t, err)
	gen.Close()

	for name, opt := range map[string]truthbits.Option{
		"use bits":    truthbits.WithUseBits(2),
		"compression": truthbits.WithCompression(codec.CompressionLZ4),
		"keep":        truthbits.WithKeep(0),
	} {
		t.Run(name, func(t *testing.T) {
			gen, err := truthbits.NewGenerator(6, truthbits.WithUseBits(3), truthbits.WithStore(store), truthbits.WithResume(true), opt)
			require.NoError(t, err)
			defer gen.Close()

			_, err = gen.Run(ctx, nil)
			require.ErrorIs(t, err, truthbits.ErrManifestMismatch)
		})
	}
}

func TestGenerator_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen, err := truthbits.NewGenerator(4)
	require.NoError(t, err)
	defer gen.Close()

	_, err = gen.Run(ctx, func(context.Context, *truthbits.Batch) error {
		t.Fatal("no batch expected")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

// failingStore rejects batch writes.
type failingStore struct {
	*blobstore.MemoryStore
}

var errDiskFull = errors.New("disk full")

func (s failingStore) Put(ctx context.Context, name string, data []byte) error {
	if strings.Contains(name, "batch-") {
		return errDiskFull
	}
	return s.MemoryStore.Put(ctx, name, data)
}

func TestGenerator_PersistFailure(t *testing.T) {
	ctx := context.Background()
	store := failingStore{blobstore.NewMemoryStore()}
	metrics := &truthbits.BasicMetricsCollector{}

	gen, err := truthbits.NewGenerator(6,
		truthbits.WithUseBits(2),
		truthbits.WithStore(store),
		truthbits.WithUploadConcurrency(1),
		truthbits.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer gen.Close()

	_, err = gen.Run(ctx, nil)
	require.ErrorIs(t, err, errDiskFull)
	assert.Zero(t, store.Len(), "no manifest lists unwritten batches")
	assert.NotZero(t, metrics.GetStats().PersistErrors)
}

func TestVerifyRun_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	gen, err := truthbits.NewGenerator(4, truthbits.WithUseBits(2), truthbits.WithStore(store))
	require.NoError(t, err)
	m, err := gen.Run(ctx, nil)
	require.NoError(t, err)
	gen.Close()

	name := m.Batches[1].Name
	data, err := blobstore.ReadAll(ctx, store, name)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, store.Put(ctx, name, data))

	_, err = truthbits.VerifyRun(ctx, store, "")
	var corrupt *truthbits.ErrCorruptBatch
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, name, corrupt.Name)
	assert.Equal(t, m.Batches[1].CRC32C, corrupt.Want)

	_, err = truthbits.VerifyRun(ctx, store, "missing/")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = truthbits.VerifyRun(ctx, nil, "")
	require.ErrorIs(t, err, truthbits.ErrNoStore)
}

func TestNewGenerator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		inputs int
		opts   []truthbits.Option
		cause  error
	}{
		{"negative inputs", -1, nil, nil},
		{"keep out of range", 3, []truthbits.Option{truthbits.WithKeep(3)}, bitset.ErrInvalidArgument},
		{"use bits above free", 3, []truthbits.Option{truthbits.WithUseBits(4)}, bitset.ErrInvalidArgument},
		{"use bits above max", 40, []truthbits.Option{truthbits.WithUseBits(33)}, bitset.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := truthbits.NewGenerator(tt.inputs, tt.opts...)
			var invalid *truthbits.ErrInvalidInputs
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.inputs, invalid.Inputs)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestGenerator_UploadLimits(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// Every batch is larger than the memory limit, so uploads run one at a time.
	gen, err := truthbits.NewGenerator(8,
		truthbits.WithUseBits(6),
		truthbits.WithStore(store),
		truthbits.WithUploadMemoryLimit(16),
		truthbits.WithUploadRateLimit(1<<30),
	)
	require.NoError(t, err)
	defer gen.Close()

	m, err := gen.Run(ctx, nil)
	require.NoError(t, err)
	assert.True(t, m.Done)
	assert.Len(t, m.Batches, 4)

	_, err = truthbits.VerifyRun(ctx, store, "")
	require.NoError(t, err)
}
