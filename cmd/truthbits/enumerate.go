package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/truthbits"
	"github.com/hupe1980/truthbits/codec"
)

func newEnumerateCommand(stdout, stderr io.Writer) *cobra.Command {
	var (
		inputs      int
		useBits     int
		keep        []int
		compression string
		manifest    string
		resume      bool
		checkpoint  int
		concurrency int
		uploadMem   int64
		uploadRate  int64
		progress    time.Duration
		metricsAddr string
		store       storeFlags
	)

	enumerateCmd := &cobra.Command{
		Use:   "enumerate",
		Short: "Enumerate a truth table batch by batch",
		Long: `
Enumerates every assignment of the free inputs in batches of 2^use-bits
rows. With a store, each batch is written as a blob under --prefix together
with a manifest.json that records the run; --resume continues a stored run
from its last checkpoint. Kept inputs (--keep) are left out of the
enumeration and stored as placeholders.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.Flags(), stderr)
			if err != nil {
				return err
			}
			c, err := codec.ParseCompression(compression)
			if err != nil {
				return err
			}
			mc, ok := codec.ByName(manifest)
			if !ok {
				return fmt.Errorf("unknown manifest codec %q", manifest)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bs, err := store.open(ctx)
			if err != nil {
				return err
			}

			opts := []truthbits.Option{
				truthbits.WithUseBits(useBits),
				truthbits.WithKeep(keep...),
				truthbits.WithLogger(logger),
				truthbits.WithCompression(c),
				truthbits.WithManifestCodec(mc),
				truthbits.WithPrefix(store.prefix),
				truthbits.WithProgressInterval(progress),
				truthbits.WithCheckpointEvery(checkpoint),
				truthbits.WithUploadConcurrency(concurrency),
				truthbits.WithUploadMemoryLimit(uploadMem),
				truthbits.WithUploadRateLimit(uploadRate),
				truthbits.WithResume(resume),
			}
			if bs != nil {
				opts = append(opts, truthbits.WithStore(bs))
			}

			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				pc, err := truthbits.NewPrometheusCollector(reg)
				if err != nil {
					return err
				}
				opts = append(opts, truthbits.WithMetricsCollector(pc))

				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server failed", "addr", metricsAddr, "error", err)
					}
				}()
				defer func() { _ = srv.Close() }()
			}

			gen, err := truthbits.NewGenerator(inputs, opts...)
			if err != nil {
				return err
			}
			defer gen.Close()

			m, err := gen.Run(ctx, nil)
			if m != nil {
				fmt.Fprintf(stdout, "inputs=%d use_bits=%d stored=%d next=%s done=%t\n",
					m.Inputs, m.UseBits, len(m.Batches), m.Next, m.Done)
			}
			if errors.Is(err, context.Canceled) {
				return fmt.Errorf("interrupted, rerun with --resume to continue: %w", err)
			}
			return err
		},
	}

	flags := enumerateCmd.Flags()
	flags.IntVarP(&inputs, "inputs", "n", 0, "Number of input variables.")
	flags.IntVarP(&useBits, "use-bits", "k", -1, fmt.Sprintf("Log2 of the rows per batch (default: min(free inputs, %d)).", truthbits.DefaultUseBits))
	flags.IntSliceVar(&keep, "keep", nil, "Inputs left out of the enumeration.")
	flags.StringVar(&compression, "compression", "zstd", "Batch compression: none, lz4 or zstd.")
	flags.StringVar(&manifest, "manifest-codec", codec.Default.Name(), "Manifest codec: json or go-json.")
	flags.BoolVar(&resume, "resume", false, "Continue the run recorded in the store.")
	flags.IntVar(&checkpoint, "checkpoint", 64, "Save the manifest after this many stored batches (0: only at the end).")
	flags.IntVar(&concurrency, "concurrency", 4, "Concurrent batch uploads.")
	flags.Int64Var(&uploadMem, "upload-memory", 256<<20, "Bytes of encoded batches buffered for upload (0: unlimited).")
	flags.Int64Var(&uploadRate, "upload-rate", 0, "Upload bandwidth limit in bytes per second (0: unlimited).")
	flags.DurationVar(&progress, "progress", truthbits.DefaultProgressInterval, "Interval between progress logs (0 disables).")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :2112.")
	store.register(flags, "none")
	_ = enumerateCmd.MarkFlagRequired("inputs")
	return enumerateCmd
}
