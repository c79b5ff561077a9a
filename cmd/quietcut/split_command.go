package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quietcut/internal/batch"
	"quietcut/internal/config"
	"quietcut/internal/ledger"
	"quietcut/internal/logging"
	"quietcut/internal/notifications"
	"quietcut/internal/preflight"
	"quietcut/internal/splitter"
	"quietcut/internal/staging"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "split <file>...",
		Short: "Detect speech and render one MP3 clip per spoken interval",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				paths = append(paths, abs)
			}
			return runBatch(cmd, ctx, &flags, paths, false)
		},
	}
	flags.registerDetection(cmd)
	flags.registerRender(cmd)
	return cmd
}

// runBatch processes paths and prints one row per file. useLedger records
// results in the persistent ledger and skips files it already holds.
func runBatch(cmd *cobra.Command, ctx *commandContext, flags *runFlags, paths []string, useLedger bool) error {
	base, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err := flags.apply(cmd, base)
	if err != nil {
		return err
	}
	if cfg.Paths.OutputDir != "" {
		if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := requireReady(cmd.Context(), cfg); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger, _, err := ctx.newLogger(cfg, runID)
	if err != nil {
		return err
	}

	staging.SweepStale(cmd.Context(), cfg.Paths.WorkDir, staging.DefaultMaxAge, logger)

	s, err := splitter.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	notifier := notifications.NewService(cfg)
	var results []batch.Result
	var summary batch.Summary
	run := func(store batch.Ledger) {
		runner := batch.NewRunner(s, store, batch.Options{
			Workers:      cfg.Batch.Workers,
			SeenCapacity: cfg.Batch.SeenCapacity,
			RunID:        runID,
		}, logger)
		results, summary = runner.Run(cmd.Context(), paths)
	}

	if notifications.Enabled(notifier) && len(paths) > 0 {
		if err := notifier.Publish(cmd.Context(), notifications.EventBatchStarted, notifications.Payload{"total": len(paths)}); err != nil {
			logger.Debug("batch start notification failed", logging.Error(err))
		}
	}

	if useLedger {
		store, err := ledger.Open(cmd.Context(), cfg.Paths.LedgerPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer store.Close()
		run(store)
	} else {
		run(nil)
	}

	if summary.Total > summary.Skipped {
		publishRun(cmd.Context(), notifier, logger, results, summary)
	}

	if flags.jsonOutput {
		if err := writeJSON(cmd, struct {
			RunID   string         `json:"run_id"`
			Summary batch.Summary  `json:"summary"`
			Results []batch.Result `json:"results"`
		}{runID, summary, results}); err != nil {
			return err
		}
	} else {
		printResults(cmd, results, summary)
	}

	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}

func printResults(cmd *cobra.Command, results []batch.Result, summary batch.Summary) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No media files found")
		return
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, resultRow(res))
	}
	fmt.Fprintln(out, renderTable(
		[]column{col("File"), col("Status"), numCol("Clips"), col("Detail")},
		rows,
	))

	colorize := shouldColorize(out)
	for _, res := range results {
		if res.Skipped {
			continue
		}
		if res.Report.Status != splitter.StatusSucceeded {
			fmt.Fprintln(out, renderStatusLine(filepath.Base(res.Path), reportKind(res.Report.Status), resultRow(res)[3], colorize))
			continue
		}
		for _, clip := range res.Report.Clips {
			detail := fmt.Sprintf("%s - %s", formatSeconds(clip.Start), formatSeconds(clip.End))
			kind := statusOK
			if clip.Skipped {
				kind = statusInfo
				detail += " (exists)"
			}
			fmt.Fprintln(out, renderStatusLine(clip.Name, kind, detail, colorize))
		}
	}
	fmt.Fprintf(out, "%d succeeded, %d empty, %d failed, %d skipped in %s\n",
		summary.Succeeded, summary.Empty, summary.Failed, summary.Skipped, summary.Elapsed.Round(10*time.Millisecond))
}

func resultRow(res batch.Result) []string {
	name := filepath.Base(res.Path)
	if res.Skipped {
		return []string{name, "skipped", "", res.SkipReason}
	}
	r := res.Report
	status := string(r.Status)
	if r.Status == splitter.StatusFailed && r.Outcome != "" {
		status = fmt.Sprintf("%s (%s)", r.Status, r.Outcome)
	}
	detail := r.Message
	if r.Error != "" {
		detail = r.Error
	}
	clips := ""
	if len(r.Clips) > 0 {
		clips = fmt.Sprintf("%d", len(r.Clips))
	}
	return []string{name, status, clips, detail}
}

// requireReady runs the preflight checks and fails on any required check.
func requireReady(ctx context.Context, cfg *config.Config) error {
	failed := preflight.Failed(preflight.RunAll(ctx, cfg))
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed (run quietcut doctor): %s", strings.Join(parts, "; "))
}

// publishRun sends the batch summary and, per notifier settings, one alert
// per failed file. Delivery problems are logged, never returned.
func publishRun(ctx context.Context, notifier notifications.Service, logger *slog.Logger, results []batch.Result, summary batch.Summary) {
	if !notifications.Enabled(notifier) {
		return
	}
	ctx = context.WithoutCancel(ctx)
	warn := func(err error) {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no alert delivered"),
		)
	}
	for _, res := range results {
		if res.Skipped || res.Report.Status != splitter.StatusFailed {
			continue
		}
		if err := notifier.Publish(ctx, notifications.EventFileFailed, notifications.Payload{
			"file":    filepath.Base(res.Path),
			"error":   res.Report.Error,
			"outcome": string(res.Report.Outcome),
		}); err != nil {
			warn(err)
		}
	}
	if err := notifier.Publish(ctx, notifications.EventBatchCompleted, notifications.Payload{
		"succeeded": summary.Succeeded,
		"empty":     summary.Empty,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"elapsed":   summary.Elapsed,
	}); err != nil {
		warn(err)
	}
}
