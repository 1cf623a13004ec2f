package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/truthbits"
	"github.com/hupe1980/truthbits/codec"
)

func newShowCommand(stdout, stderr io.Writer) *cobra.Command {
	var (
		store storeFlags
		batch string
	)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a run manifest or the columns of one stored batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bs, err := store.open(ctx)
			if err != nil {
				return err
			}
			if bs == nil {
				return truthbits.ErrNoStore
			}

			m, err := truthbits.LoadManifest(ctx, bs, store.prefix)
			if err != nil {
				return err
			}

			if batch == "" {
				data, err := codec.GoJSON{}.MarshalIndent(m)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout, string(data))
				return err
			}

			// A status matches with or without leading zeros.
			status, _ := truthbits.CanonicalStatus(batch)
			for _, entry := range m.Batches {
				if entry.Name != batch && (status == "" || entry.Status != status) {
					continue
				}
				b, err := truthbits.ReadBatch(ctx, bs, store.prefix, entry)
				if err != nil {
					return err
				}
				defer b.Release()

				fmt.Fprintf(stdout, "batch %s status=%s inputs=%d use_bits=%d compression=%s\n",
					entry.Name, entry.Status, b.Inputs, b.UseBits, m.Compression)
				for i, col := range b.Columns {
					if col.Kept {
						fmt.Fprintf(stdout, "x%d kept\n", i)
						continue
					}
					fmt.Fprintf(stdout, "x%d %s\n", i, col.Bits)
				}
				return nil
			}
			return fmt.Errorf("batch %q not in manifest", batch)
		},
	}
	store.register(showCmd.Flags(), "local")
	showCmd.Flags().StringVar(&batch, "batch", "", "Batch name or hex status to print.")
	return showCmd
}
