package truthbits

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/truthbits/internal/pool"
)

// MetricsCollector defines an interface for collecting generator metrics.
// Implement this interface to integrate with monitoring systems;
// PrometheusCollector is the built-in Prometheus adapter.
type MetricsCollector interface {
	// RecordBatch is called after each enumerated batch.
	// rows is the number of truth-table rows in the batch, duration covers
	// column generation and the batch callback, err is nil if successful.
	RecordBatch(rows uint64, duration time.Duration, err error)

	// RecordPersist is called after each blob write (batch or manifest).
	// size is the encoded size in bytes.
	RecordPersist(size int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBatch(uint64, time.Duration, error)  {}
func (NoopMetricsCollector) RecordPersist(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	BatchCount        atomic.Int64
	BatchErrors       atomic.Int64
	BatchRows         atomic.Uint64
	BatchTotalNanos   atomic.Int64
	PersistCount      atomic.Int64
	PersistErrors     atomic.Int64
	PersistBytes      atomic.Int64
	PersistTotalNanos atomic.Int64
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(rows uint64, duration time.Duration, err error) {
	b.BatchCount.Add(1)
	b.BatchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BatchErrors.Add(1)
		return
	}
	b.BatchRows.Add(rows)
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(size int64, duration time.Duration, err error) {
	b.PersistCount.Add(1)
	b.PersistTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PersistErrors.Add(1)
		return
	}
	b.PersistBytes.Add(size)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BatchCount:      b.BatchCount.Load(),
		BatchErrors:     b.BatchErrors.Load(),
		BatchRows:       b.BatchRows.Load(),
		BatchAvgNanos:   avg(b.BatchTotalNanos.Load(), b.BatchCount.Load()),
		PersistCount:    b.PersistCount.Load(),
		PersistErrors:   b.PersistErrors.Load(),
		PersistBytes:    b.PersistBytes.Load(),
		PersistAvgNanos: avg(b.PersistTotalNanos.Load(), b.PersistCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BatchCount      int64
	BatchErrors     int64
	BatchRows       uint64
	BatchAvgNanos   int64
	PersistCount    int64
	PersistErrors   int64
	PersistBytes    int64
	PersistAvgNanos int64
}

// PoolStats reports reuse of the word buffers that back bitsets.
type PoolStats struct {
	Hits   uint64 // buffers served from the pool
	Misses uint64 // buffers that had to be allocated
	Puts   uint64 // released buffers kept for reuse
	Drops  uint64 // released buffers left to the GC
}

// BufferPoolStats returns process-wide buffer pool counters.
func BufferPoolStats() PoolStats {
	s := pool.ReadStats()
	return PoolStats{Hits: s.Hits, Misses: s.Misses, Puts: s.Puts, Drops: s.Drops}
}
