package truthbits

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector on Prometheus metrics.
// It also exports the buffer pool counters as gauges.
type PrometheusCollector struct {
	batches      *prometheus.CounterVec
	rows         prometheus.Counter
	batchLatency prometheus.Histogram
	persisted    *prometheus.CounterVec
	bytes        prometheus.Counter
	persistLat   prometheus.Histogram
}

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusCollector{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "truthbits_batches_total",
			Help: "Enumerated truth-table batches by status",
		}, []string{"status"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "truthbits_rows_total",
			Help: "Truth-table rows produced",
		}),
		batchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "truthbits_batch_duration_seconds",
			Help:    "Time to build and consume one batch",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "truthbits_persist_total",
			Help: "Blob writes by status",
		}, []string{"status"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "truthbits_persist_bytes_total",
			Help: "Encoded bytes written to the blob store",
		}),
		persistLat: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "truthbits_persist_duration_seconds",
			Help:    "Blob write latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	poolGauge := func(name, help string, read func(PoolStats) uint64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: name,
			Help: help,
		}, func() float64 { return float64(read(BufferPoolStats())) })
	}

	collectors := []prometheus.Collector{
		p.batches, p.rows, p.batchLatency, p.persisted, p.bytes, p.persistLat,
		poolGauge("truthbits_pool_hits", "Word buffers served from the pool", func(s PoolStats) uint64 { return s.Hits }),
		poolGauge("truthbits_pool_misses", "Word buffers allocated", func(s PoolStats) uint64 { return s.Misses }),
		poolGauge("truthbits_pool_puts", "Released word buffers kept for reuse", func(s PoolStats) uint64 { return s.Puts }),
		poolGauge("truthbits_pool_drops", "Released word buffers left to the GC", func(s PoolStats) uint64 { return s.Drops }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBatch implements MetricsCollector.
func (p *PrometheusCollector) RecordBatch(rows uint64, duration time.Duration, err error) {
	p.batches.WithLabelValues(status(err)).Inc()
	p.batchLatency.Observe(duration.Seconds())
	if err == nil {
		p.rows.Add(float64(rows))
	}
}

// RecordPersist implements MetricsCollector.
func (p *PrometheusCollector) RecordPersist(size int64, duration time.Duration, err error) {
	p.persisted.WithLabelValues(status(err)).Inc()
	p.persistLat.Observe(duration.Seconds())
	if err == nil {
		p.bytes.Add(float64(size))
	}
}
