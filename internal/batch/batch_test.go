package batch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietcut/internal/batch"
	"quietcut/internal/ledger"
	"quietcut/internal/logging"
	"quietcut/internal/services"
	"quietcut/internal/splitter"
	"quietcut/internal/testsupport"
)

type fakeProcessor struct {
	mu      sync.Mutex
	calls   map[string]int
	reports map[string]splitter.Report
	delay   time.Duration
	active  atomic.Int32
	peak    atomic.Int32
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{calls: map[string]int{}, reports: map[string]splitter.Report{}}
}

func (f *fakeProcessor) Process(_ context.Context, path string) splitter.Report {
	n := f.active.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer f.active.Add(-1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++
	if report, ok := f.reports[path]; ok {
		report.Source = path
		return report
	}
	return splitter.Report{Source: path, Status: splitter.StatusSucceeded, Clips: make([]splitter.Clip, 2)}
}

func (f *fakeProcessor) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func failedReport(err error) splitter.Report {
	return splitter.Report{
		Status:  splitter.StatusFailed,
		Outcome: services.Classify(err),
		Err:     err,
		Error:   err.Error(),
	}
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.MP4", "a.wav", "notes.txt", ".hidden.mp3", "c.mp3.partial", "d.flac"} {
		testsupport.WriteFile(t, filepath.Join(dir, name), "x")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "processed.mp3"), 0o755))

	paths, err := batch.Discover(dir, []string{".mp4", "wav", ".mp3", ".flac"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.wav"),
		filepath.Join(dir, "b.MP4"),
		filepath.Join(dir, "d.flac"),
	}, paths)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := batch.Discover(filepath.Join(t.TempDir(), "nope"), []string{".mp3"})
	assert.Error(t, err)
}

func TestRegistryInsertIfAbsent(t *testing.T) {
	r := batch.NewRegistry(2)
	assert.True(t, r.Claim("a"))
	assert.False(t, r.Claim("a"), "in-flight path")

	r.Done("a")
	assert.False(t, r.Claim("a"), "completed path")

	r.Release("a")
	assert.False(t, r.Claim("a"), "release only affects in-flight paths")

	assert.True(t, r.Claim("b"))
	r.Release("b")
	assert.True(t, r.Claim("b"), "released path can be claimed again")
}

func TestRegistryEvictsOldestCompleted(t *testing.T) {
	r := batch.NewRegistry(2)
	for _, p := range []string{"a", "b", "c"} {
		require.True(t, r.Claim(p))
		r.Done(p)
	}
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Claim("a"), "oldest completion was evicted")
	assert.False(t, r.Claim("c"))
}

func TestRegistryConcurrentClaims(t *testing.T) {
	r := batch.NewRegistry(16)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Claim("same") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRunContinuesAfterFailures(t *testing.T) {
	proc := newFakeProcessor()
	proc.reports["/m/bad.mp4"] = failedReport(services.Wrap(services.ErrUndecodable, "source", "probe", "no audio stream", nil))
	proc.reports["/m/quiet.mp3"] = splitter.Report{Status: splitter.StatusEmpty, Message: splitter.EmptyMessage}

	runner := batch.NewRunner(proc, nil, batch.Options{Workers: 2, RunID: "run-1"}, logging.NewNop())
	paths := []string{"/m/bad.mp4", "/m/good.mp4", "/m/quiet.mp3", "/m/good.mp4"}
	results, summary := runner.Run(context.Background(), paths)

	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, paths[i], res.Path, "results keep submission order")
	}
	assert.Equal(t, splitter.StatusFailed, results[0].Report.Status)
	assert.Equal(t, services.OutcomeUndecodable, results[0].Report.Outcome)
	assert.Equal(t, splitter.StatusSucceeded, results[1].Report.Status)
	assert.Equal(t, splitter.StatusEmpty, results[2].Report.Status)
	assert.True(t, results[3].Skipped)
	assert.Equal(t, 1, proc.callCount("/m/good.mp4"))

	assert.Equal(t, batch.Summary{Total: 4, Succeeded: 1, Empty: 1, Failed: 1, Skipped: 1}, withoutElapsed(summary))
	assert.Equal(t, "run-1", runner.RunID())
}

func TestRunBoundsConcurrency(t *testing.T) {
	proc := newFakeProcessor()
	proc.delay = 20 * time.Millisecond

	var paths []string
	for i := range 8 {
		paths = append(paths, fmt.Sprintf("/m/%d.mp3", i))
	}
	runner := batch.NewRunner(proc, nil, batch.Options{Workers: 3}, logging.NewNop())
	_, summary := runner.Run(context.Background(), paths)

	assert.Equal(t, 8, summary.Succeeded)
	assert.LessOrEqual(t, proc.peak.Load(), int32(3))
	assert.NotEmpty(t, runner.RunID())
}

func TestRunUsesLedgerAcrossRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	notReady := services.Wrap(services.ErrDurationUnavailable, "source", "duration", "", nil)
	proc := newFakeProcessor()
	proc.reports["/m/live.mkv"] = failedReport(notReady)
	proc.reports["/m/broken.mp4"] = failedReport(errors.New("boom"))

	paths := []string{"/m/done.mp4", "/m/live.mkv", "/m/broken.mp4"}
	first := batch.NewRunner(proc, store, batch.Options{Workers: 1, RunID: "first"}, logging.NewNop())
	_, summary := first.Run(ctx, paths)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)

	done, err := store.Get(ctx, "/m/done.mp4")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, done.Status)
	assert.Equal(t, 2, done.Clips)

	live, err := store.Get(ctx, "/m/live.mkv")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDeferred, live.Status)
	assert.Equal(t, string(services.OutcomeNotReady), live.Outcome)

	broken, err := store.Get(ctx, "/m/broken.mp4")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusFailed, broken.Status)
	assert.Equal(t, "boom", broken.ErrorMessage)

	delete(proc.reports, "/m/live.mkv")
	second := batch.NewRunner(proc, store, batch.Options{Workers: 1, RunID: "second"}, logging.NewNop())
	results, summary := second.Run(ctx, paths)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Skipped)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, "already processed", results[0].SkipReason)
	assert.False(t, results[1].Skipped)
	assert.Equal(t, 2, proc.callCount("/m/live.mkv"))
	assert.Equal(t, 1, proc.callCount("/m/done.mp4"))
}

func TestLedgerStatus(t *testing.T) {
	cases := []struct {
		name   string
		report splitter.Report
		want   ledger.Status
	}{
		{"succeeded", splitter.Report{Status: splitter.StatusSucceeded}, ledger.StatusCompleted},
		{"empty", splitter.Report{Status: splitter.StatusEmpty}, ledger.StatusEmpty},
		{"not ready", splitter.Report{Status: splitter.StatusFailed, Outcome: services.OutcomeNotReady}, ledger.StatusDeferred},
		{"canceled", splitter.Report{Status: splitter.StatusFailed, Outcome: services.OutcomeCanceled}, ledger.StatusDeferred},
		{"undecodable", splitter.Report{Status: splitter.StatusFailed, Outcome: services.OutcomeUndecodable}, ledger.StatusFailed},
		{"failed", splitter.Report{Status: splitter.StatusFailed, Outcome: services.OutcomeFailed}, ledger.StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, batch.LedgerStatus(tc.report))
		})
	}
}

func TestDefaultWorkersPositive(t *testing.T) {
	assert.Positive(t, batch.DefaultWorkers())
}

func withoutElapsed(s batch.Summary) batch.Summary {
	s.Elapsed = 0
	return s
}
