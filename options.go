package truthbits

import (
	"log/slog"
	"time"

	"github.com/hupe1980/truthbits/blobstore"
	"github.com/hupe1980/truthbits/codec"
)

// DefaultUseBits caps the batch width chosen when WithUseBits is not given:
// 2^16 rows, 1 KiB per column.
const DefaultUseBits = 16

// DefaultProgressInterval is the minimum time between progress log records.
const DefaultProgressInterval = 10 * time.Second

type options struct {
	useBits           int
	keep              []int
	logger            *Logger
	metricsCollector  MetricsCollector
	store             blobstore.BlobStore
	compression       codec.Compression
	manifestCodec     codec.Codec
	prefix            string
	progressInterval  time.Duration
	checkpointEvery   int
	uploadConcurrency int
	uploadMemory      int64
	uploadRate        int64
	resume            bool
}

// Option configures a Generator.
type Option func(*options)

// WithUseBits sets log2 of the rows per batch. It must not exceed the
// number of free inputs or bitset.MaxUseBits. A negative value selects
// min(free inputs, DefaultUseBits).
func WithUseBits(useBits int) Option {
	return func(o *options) {
		o.useBits = useBits
	}
}

// WithKeep marks inputs whose columns the caller supplies. Kept inputs are
// not enumerated and their handles are never touched.
func WithKeep(inputs ...int) Option {
	return func(o *options) {
		o.keep = append(o.keep, inputs...)
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := truthbits.NewJSONLogger(slog.LevelInfo)
//	gen, _ := truthbits.NewGenerator(24, truthbits.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures metrics collection for batches and blob
// writes.
//
// Example:
//
//	metrics := &truthbits.BasicMetricsCollector{}
//	gen, _ := truthbits.NewGenerator(24, truthbits.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
//	fmt.Printf("Batches: %d, Rows: %d\n", stats.BatchCount, stats.BatchRows)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithStore persists every batch and a run manifest to store.
func WithStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCompression sets the block compression of stored batches.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithManifestCodec sets the codec used to write the run manifest.
// If nil is passed, codec.Default is used.
func WithManifestCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.manifestCodec = c
	}
}

// WithPrefix places the run's blobs under prefix (e.g. "runs/n40/").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithProgressInterval sets the minimum time between progress log records.
// Zero disables progress logging.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		o.progressInterval = d
	}
}

// WithCheckpointEvery writes the manifest after every n stored batches so
// that an interrupted run can be resumed. Zero writes it only at the end.
func WithCheckpointEvery(n int) Option {
	return func(o *options) {
		o.checkpointEvery = n
	}
}

// WithUploadConcurrency bounds the number of in-flight batch writes.
func WithUploadConcurrency(n int) Option {
	return func(o *options) {
		o.uploadConcurrency = n
	}
}

// WithUploadMemoryLimit caps the encoded batches waiting for upload. When
// the store falls behind, the generator blocks until writes complete.
// Zero means no limit.
func WithUploadMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.uploadMemory = bytes
	}
}

// WithUploadRateLimit caps batch upload throughput in bytes per second.
// Zero means no limit.
func WithUploadRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.uploadRate = bytesPerSec
	}
}

// WithResume continues the run recorded in the store's manifest, if any.
func WithResume(resume bool) Option {
	return func(o *options) {
		o.resume = resume
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		useBits:           -1,
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
		compression:       codec.CompressionNone,
		manifestCodec:     codec.Default,
		progressInterval:  DefaultProgressInterval,
		uploadConcurrency: 4,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.uploadConcurrency <= 0 {
		o.uploadConcurrency = 1
	}
	return o
}
