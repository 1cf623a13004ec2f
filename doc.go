// Package truthbits enumerates the truth tables of Boolean functions as
// bit-parallel columns and optionally persists them.
//
// The bit-level engine lives in package bitset: reference-counted,
// copy-on-write bitsets with O(1) inversion, tracked popcounts and fused
// AND/OR/XOR/MAJ/ITE operators. This package drives bitset.Enumerator over
// tables of any width, batch by batch.
//
// # Quick Start
//
// In-memory consumption:
//
//	gen, _ := truthbits.NewGenerator(24, truthbits.WithUseBits(16))
//	defer gen.Close()
//	_, err := gen.Run(ctx, func(ctx context.Context, b *truthbits.Batch) error {
//	    f := bitset.Maj(b.Columns[0], b.Columns[1], b.Columns[2], nil)
//	    defer f.Release()
//	    ones += f.Popcount()
//	    return nil
//	})
//
// Persisted runs:
//
//	store := blobstore.NewLocalStore("./tables")
//	gen, _ := truthbits.NewGenerator(40,
//	    truthbits.WithStore(store),
//	    truthbits.WithPrefix("n40/"),
//	    truthbits.WithCompression(codec.CompressionZstd),
//	    truthbits.WithCheckpointEvery(64),
//	    truthbits.WithResume(true),
//	)
//	manifest, err := gen.Run(ctx, nil)
//
// Every stored batch is listed in the run manifest with its CRC32C;
// VerifyRun re-reads and checks them.
//
// # Kept Inputs
//
// Inputs named with WithKeep are not enumerated. Their columns are set by
// the caller with SetColumn and left untouched by the generator, which lets
// a search fix part of the assignment while the rest is enumerated.
//
// # Observability
//
// Logging goes through Logger (log/slog); progress records are throttled
// with WithProgressInterval. Metrics go to a MetricsCollector:
// BasicMetricsCollector for in-process counters, PrometheusCollector for
// Prometheus.
package truthbits
