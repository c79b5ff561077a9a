package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quietcut/internal/config"
)

// runFlags are per-invocation overrides of the loaded configuration.
type runFlags struct {
	outputDir  string
	trimEdges  bool
	normalize  bool
	overwrite  bool
	windowSize float64
	threshold  float64
	easeIn     float64
	minSilence float64
	workers    int
	jsonOutput bool
}

func (f *runFlags) registerDetection(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Float64Var(&f.windowSize, "window-size", 0, "Analysis window length in seconds")
	flags.Float64Var(&f.threshold, "threshold", 0, "Peak amplitude (0-1) below which a window is silent")
	flags.Float64Var(&f.easeIn, "ease-in", 0, "Padding in seconds kept around each spoken interval")
	flags.Float64Var(&f.minSilence, "min-silence", 0, "Shortest silence in minutes that separates two clips")
	flags.BoolVar(&f.trimEdges, "trim-edges", false, "Only trim leading and trailing silence into a single clip")
	flags.StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for clips (default: <source dir>/processed)")
	flags.BoolVar(&f.jsonOutput, "json", false, "Output as JSON")
}

func (f *runFlags) registerRender(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.normalize, "normalize", false, "Apply loudness normalization to clips")
	flags.BoolVar(&f.overwrite, "overwrite", false, "Re-render clips that already exist")
	flags.IntVarP(&f.workers, "workers", "w", 0, "Files processed concurrently (default: batch.workers)")
}

// apply returns a copy of base with every explicitly set flag applied and
// validates the result.
func (f *runFlags) apply(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	cfg := *base
	cfg.Batch.Extensions = append([]string(nil), base.Batch.Extensions...)
	changed := cmd.Flags().Changed

	if changed("output-dir") {
		dir, err := config.ExpandPath(f.outputDir)
		if err != nil {
			return nil, fmt.Errorf("resolve --output-dir: %w", err)
		}
		cfg.Paths.OutputDir = dir
	}
	if changed("trim-edges") {
		cfg.Detection.TrimEdgesOnly = f.trimEdges
	}
	if changed("window-size") {
		cfg.Detection.WindowSize = f.windowSize
	}
	if changed("threshold") {
		cfg.Detection.VolumeThreshold = f.threshold
	}
	if changed("ease-in") {
		cfg.Detection.EaseIn = f.easeIn
	}
	if changed("min-silence") {
		cfg.Detection.SilenceMinLen = f.minSilence
	}
	if changed("normalize") {
		cfg.Output.Normalize = f.normalize
	}
	if changed("overwrite") {
		cfg.Output.Overwrite = f.overwrite
	}
	if changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &cfg, nil
}
