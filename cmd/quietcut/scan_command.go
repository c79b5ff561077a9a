package main

import (
	"github.com/spf13/cobra"

	"quietcut/internal/batch"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var noLedger bool

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Process every media file in a folder that has not been handled yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			paths, err := batch.Discover(args[0], cfg.Batch.Extensions)
			if err != nil {
				return err
			}
			return runBatch(cmd, ctx, &flags, paths, cfg.Batch.UseLedger && !noLedger)
		},
	}
	flags.registerDetection(cmd)
	flags.registerRender(cmd)
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "Ignore the ledger and process every discovered file")
	return cmd
}
