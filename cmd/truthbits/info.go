package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hupe1980/truthbits"
	"github.com/hupe1980/truthbits/internal/simd"
)

func newInfoCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the active word kernels and CPU features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(stdout, "arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			isa := simd.ActiveISA().String()
			if simd.IsOverridden() {
				isa += " (" + simd.EnvOverride + ")"
			}
			fmt.Fprintf(stdout, "isa: %s\n", isa)

			features := simd.Features()
			names := make([]string, 0, len(features))
			for name := range features {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(stdout, "cpu.%s: %t\n", name, features[name])
			}

			s := truthbits.BufferPoolStats()
			_, err := fmt.Fprintf(stdout, "pool: hits=%d misses=%d puts=%d drops=%d\n", s.Hits, s.Misses, s.Puts, s.Drops)
			return err
		},
	}
}
