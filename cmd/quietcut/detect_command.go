package main

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quietcut/internal/splitter"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "detect <file>...",
		Short: "Print the intervals that would be kept, without rendering",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := flags.apply(cmd, base)
			if err != nil {
				return err
			}
			logger, _, err := ctx.newLogger(cfg, uuid.NewString())
			if err != nil {
				return err
			}
			s, err := splitter.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			analyses := make([]splitter.Analysis, 0, len(args))
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				analysis, err := s.Analyze(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				analyses = append(analyses, analysis)
			}

			if flags.jsonOutput {
				return writeJSON(cmd, analyses)
			}
			for _, a := range analyses {
				printAnalysis(cmd, a)
			}
			return nil
		},
	}
	flags.registerDetection(cmd)
	return cmd
}

func printAnalysis(cmd *cobra.Command, a splitter.Analysis) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, %s)\n", filepath.Base(a.Source), a.Kind, formatSeconds(a.Duration))
	if a.Result.Silent() {
		fmt.Fprintln(out, splitter.EmptyMessage)
		return
	}
	fmt.Fprintln(out, "Keeping intervals")
	rows := make([][]string, 0, len(a.Outputs))
	for _, o := range a.Outputs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", o.Index),
			formatSeconds(o.Start),
			formatSeconds(o.End),
			formatSeconds(o.Span()),
			o.Name,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]column{numCol("#"), numCol("Start"), numCol("End"), numCol("Length"), col("Clip")},
		rows,
	))
}

// formatSeconds renders seconds as [h:]mm:ss.ss.
func formatSeconds(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	hours := int(v / 3600)
	minutes := int(math.Mod(v, 3600) / 60)
	seconds := math.Mod(v, 60)
	if hours > 0 {
		return fmt.Sprintf("%s%d:%02d:%05.2f", sign, hours, minutes, seconds)
	}
	return fmt.Sprintf("%s%02d:%05.2f", sign, minutes, seconds)
}
