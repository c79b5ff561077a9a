package batch

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/cpu"
	"golang.org/x/sync/errgroup"

	"quietcut/internal/ledger"
	"quietcut/internal/logging"
	"quietcut/internal/services"
	"quietcut/internal/splitter"
)

// Processor handles one file.
type Processor interface {
	Process(ctx context.Context, path string) splitter.Report
}

// Ledger is the persistent at-most-once record.
type Ledger interface {
	Claim(ctx context.Context, path, runID string) (bool, error)
	Finish(ctx context.Context, path string, status ledger.Status, outcome string, clips int, errMsg string) error
}

// Options configures a Runner.
type Options struct {
	// Workers bounds concurrent files; zero uses the physical core count.
	Workers      int
	SeenCapacity int
	// RunID tags logs and ledger rows; a random id is generated when empty.
	RunID string
}

// Result is the per-file outcome of a batch.
type Result struct {
	Path       string          `json:"path"`
	Skipped    bool            `json:"skipped,omitempty"`
	SkipReason string          `json:"skip_reason,omitempty"`
	Report     splitter.Report `json:"report"`
}

// Summary counts results by status.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Empty     int           `json:"empty"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Runner processes batches of files.
type Runner struct {
	processor Processor
	ledger    Ledger
	registry  *Registry
	workers   int
	runID     string
	logger    *slog.Logger
}

// DefaultWorkers returns the number of physical cores, falling back to the
// logical CPU count.
func DefaultWorkers() int {
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		return n
	}
	return max(runtime.NumCPU(), 1)
}

// NewRunner wires a runner. store may be nil to rely on the in-memory
// registry alone.
func NewRunner(processor Processor, store Ledger, opts Options, logger *slog.Logger) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Runner{
		processor: processor,
		ledger:    store,
		registry:  NewRegistry(opts.SeenCapacity),
		workers:   workers,
		runID:     runID,
		logger:    logging.NewComponentLogger(logger, "batch"),
	}
}

// RunID identifies this runner's batches.
func (r *Runner) RunID() string {
	return r.runID
}

// Registry exposes the in-memory dedup set.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run processes paths with at most Workers files in flight. Results are in
// submission order.
func (r *Runner) Run(ctx context.Context, paths []string) ([]Result, Summary) {
	started := time.Now()
	ctx = services.WithRunID(ctx, r.runID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.Int("files", len(paths)),
		logging.Int("workers", r.workers),
	)

	results := make([]Result, len(paths))
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, path := range paths {
		results[i].Path = path
		if reason, ok := r.claim(ctx, path); !ok {
			results[i].Skipped = true
			results[i].SkipReason = reason
			continue
		}
		g.Go(func() error {
			results[i].Report = r.processOne(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(results)
	summary.Elapsed = time.Since(started)
	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_finished"),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("empty", summary.Empty),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return results, summary
}

func (r *Runner) claim(ctx context.Context, path string) (string, bool) {
	if !r.registry.Claim(path) {
		return "already submitted in this run", false
	}
	if r.ledger == nil {
		return "", true
	}
	ok, err := r.ledger.Claim(ctx, path, r.runID)
	if err != nil {
		r.registry.Release(path)
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "ledger claim failed", "ledger_claim_failed",
			logging.String(logging.FieldSource, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file not processed this run"),
		)
		return "ledger unavailable", false
	}
	if !ok {
		r.registry.Done(path)
		return "already processed", false
	}
	return "", true
}

func (r *Runner) processOne(ctx context.Context, path string) splitter.Report {
	report := r.processor.Process(ctx, path)
	status := LedgerStatus(report)
	if status == ledger.StatusDeferred {
		r.registry.Release(path)
	} else {
		r.registry.Done(path)
	}
	if r.ledger == nil {
		return report
	}
	// Record the outcome even when the batch is being canceled.
	finishCtx := context.WithoutCancel(ctx)
	if err := r.ledger.Finish(finishCtx, path, status, string(report.Outcome), len(report.Clips), report.Error); err != nil {
		logging.WarnWithContext(logging.WithContext(services.WithSource(ctx, path), r.logger), "ledger update failed", "ledger_finish_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "file may be processed again by the next scan"),
		)
	}
	return report
}

// LedgerStatus maps a report to the ledger state recorded for its file.
// Files that were not ready or were interrupted are deferred for retry.
func LedgerStatus(report splitter.Report) ledger.Status {
	switch report.Status {
	case splitter.StatusSucceeded:
		return ledger.StatusCompleted
	case splitter.StatusEmpty:
		return ledger.StatusEmpty
	}
	switch report.Outcome {
	case services.OutcomeNotReady, services.OutcomeCanceled:
		return ledger.StatusDeferred
	default:
		return ledger.StatusFailed
	}
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, res := range results {
		switch {
		case res.Skipped:
			s.Skipped++
		case res.Report.Status == splitter.StatusSucceeded:
			s.Succeeded++
		case res.Report.Status == splitter.StatusEmpty:
			s.Empty++
		default:
			s.Failed++
		}
	}
	return s
}
