package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/truthbits"
)

func newVerifyCommand(stdout, stderr io.Writer) *cobra.Command {
	var store storeFlags

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every stored batch of a run against its manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.Flags(), stderr)
			if err != nil {
				return err
			}
			bs, err := store.open(cmd.Context())
			if err != nil {
				return err
			}
			if bs == nil {
				return truthbits.ErrNoStore
			}

			m, err := truthbits.VerifyRun(cmd.Context(), bs, store.prefix)
			if err != nil {
				logger.Error("verify failed", "prefix", store.prefix, "error", err)
				return err
			}
			fmt.Fprintf(stdout, "ok: %d batches, next=%s, done=%t\n", len(m.Batches), m.Next, m.Done)
			return nil
		},
	}
	store.register(verifyCmd.Flags(), "local")
	return verifyCmd
}
