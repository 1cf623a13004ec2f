package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/truthbits/bitset"
)

// maxTableInputs keeps printed tables readable.
const maxTableInputs = 16

func newTableCommand(stdout io.Writer) *cobra.Command {
	var (
		inputs  int
		useBits int
		format  string
	)

	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "Print the truth-table columns of a small function",
		Long: `
Prints one line per input variable with its column over 2^use-bits rows,
row 0 first (--format bits) or as a hex number (--format hex). Inputs
above use-bits print as all-zero placeholders.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputs < 0 || inputs > maxTableInputs {
				return fmt.Errorf("--inputs must be between 0 and %d", maxTableInputs)
			}
			if format != "bits" && format != "hex" {
				return fmt.Errorf("invalid format %q (want bits or hex)", format)
			}

			cols := make([]*bitset.Bitset, inputs)
			if err := bitset.BuildCombinations(cols, inputs, useBits, nil); err != nil {
				return err
			}
			defer func() {
				for _, c := range cols {
					c.Release()
				}
			}()

			for i, c := range cols {
				s := c.BitString()
				if format == "hex" {
					s = c.String()
				}
				if _, err := fmt.Fprintf(stdout, "x%d %s\n", i, s); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags := tableCmd.Flags()
	flags.IntVarP(&inputs, "inputs", "n", 3, "Number of input variables.")
	flags.IntVarP(&useBits, "use-bits", "k", -1, "Log2 of the row count (default: inputs).")
	flags.StringVar(&format, "format", "bits", "Output format: bits or hex.")
	return tableCmd
}
