package splitter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"quietcut/internal/detect"
	"quietcut/internal/fileutil"
	"quietcut/internal/logging"
	"quietcut/internal/media/ffmpeg"
	"quietcut/internal/media/source"
	"quietcut/internal/naming"
	"quietcut/internal/services"
	"quietcut/internal/storage"
)

// Status is the per-file result surfaced to batch callers.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusEmpty     Status = "empty"
	StatusFailed    Status = "failed"
)

// Clip is one planned output and what happened to it.
type Clip struct {
	naming.Output
	Skipped  bool   `json:"skipped,omitempty"`
	Location string `json:"location,omitempty"`
}

// Report summarizes the processing of one file.
type Report struct {
	Source    string            `json:"source"`
	Status    Status            `json:"status"`
	Outcome   services.Outcome  `json:"outcome,omitempty"`
	Kind      string            `json:"kind,omitempty"`
	Duration  float64           `json:"duration,omitempty"`
	Intervals []detect.Interval `json:"intervals,omitempty"`
	Segments  []detect.Segment  `json:"segments,omitempty"`
	OutputDir string            `json:"output_dir,omitempty"`
	Clips     []Clip            `json:"clips,omitempty"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Elapsed   time.Duration     `json:"elapsed"`

	Err error `json:"-"`
}

// Rendered counts clips written during this run.
func (r Report) Rendered() int {
	n := 0
	for _, c := range r.Clips {
		if !c.Skipped {
			n++
		}
	}
	return n
}

// Analysis is the detect-only view of a source.
type Analysis struct {
	Source   string          `json:"source"`
	Kind     string          `json:"kind"`
	Duration float64         `json:"duration"`
	Audio    string          `json:"audio,omitempty"`
	Repaired bool            `json:"repaired,omitempty"`
	Result   detect.Result   `json:"result"`
	Outputs  []naming.Output `json:"outputs,omitempty"`
}

// Analyze probes and scans path and plans output names without rendering.
func (s *Splitter) Analyze(ctx context.Context, path string) (Analysis, error) {
	ctx = services.WithSource(ctx, path)
	src, analysis, err := s.analyze(ctx, path)
	if src != nil {
		s.cleanup(ctx, src)
	}
	return analysis, err
}

func (s *Splitter) analyze(ctx context.Context, path string) (*source.Source, Analysis, error) {
	analysis := Analysis{Source: path}

	src, err := s.opener.Open(services.WithStage(ctx, "probe"), path)
	if err != nil {
		return nil, analysis, err
	}
	analysis.Kind = src.Kind.String()
	analysis.Duration = src.Duration
	analysis.Audio = src.Audio.Label()
	analysis.Repaired = src.Repaired

	scanCtx := services.WithStage(ctx, "detect")
	sampler, err := src.Sampler(scanCtx)
	if err != nil {
		return src, analysis, err
	}
	result, err := s.detector.Run(scanCtx, sampler, src.Duration)
	if cerr := sampler.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close sampler: %w", cerr)
	}
	if err != nil {
		return src, analysis, err
	}
	analysis.Result = result

	outputs, err := s.naming.Resolve(path, result.Segments, s.detector.Config().TrimEdgesOnly)
	if err != nil {
		return src, analysis, services.Wrap(services.ErrValidation, "plan", "resolve names", "", err)
	}
	analysis.Outputs = outputs
	return src, analysis, nil
}

// Process detects speech in path and renders one clip per planned segment.
// Failures are captured in the report rather than returned so callers can
// move on to the next file.
func (s *Splitter) Process(ctx context.Context, path string) Report {
	started := time.Now()
	ctx = services.WithSource(ctx, path)
	logger := logging.WithContext(ctx, s.logger)

	report := Report{Source: path, OutputDir: s.naming.Dir(path)}
	finish := func(r Report) Report {
		r.Elapsed = time.Since(started)
		return r
	}

	src, analysis, err := s.analyze(ctx, path)
	if src != nil {
		defer s.cleanup(ctx, src)
	}
	report.Kind = analysis.Kind
	report.Duration = analysis.Duration
	report.Intervals = analysis.Result.Intervals
	report.Segments = analysis.Result.Segments
	if err != nil {
		return finish(s.fail(ctx, report, err))
	}

	if analysis.Result.Silent() {
		report.Status = StatusEmpty
		report.Message = EmptyMessage
		logger.Info("no speech found",
			logging.String(logging.FieldEventType, "source_empty"),
			logging.Seconds("duration_seconds", analysis.Duration),
		)
		return finish(report)
	}

	renderCtx := services.WithStage(ctx, "render")
	for _, out := range analysis.Outputs {
		clip, err := s.renderClip(renderCtx, src, out)
		report.Clips = append(report.Clips, clip)
		if err != nil {
			return finish(s.fail(ctx, report, err))
		}
	}

	report.Status = StatusSucceeded
	rendered := report.Rendered()
	if rendered == 0 {
		report.Message = fmt.Sprintf("All %d clips already exist in %s", len(report.Clips), report.OutputDir)
	} else {
		report.Message = fmt.Sprintf("%d clip(s) written to %s", rendered, report.OutputDir)
	}
	logger.Info("source processed",
		logging.String(logging.FieldEventType, "source_processed"),
		logging.Int("clips", len(report.Clips)),
		logging.Int("rendered", rendered),
		logging.String("output_dir", report.OutputDir),
	)
	return finish(report)
}

func (s *Splitter) renderClip(ctx context.Context, src *source.Source, out naming.Output) (Clip, error) {
	logger := logging.WithContext(ctx, s.logger)
	clip := Clip{Output: out}

	if err := ctx.Err(); err != nil {
		return clip, err
	}
	if !s.cfg.Output.Overwrite && fileutil.Exists(out.Path) {
		clip.Skipped = true
		logger.Info("clip exists; skipping",
			logging.Args(logging.DecisionAttrs("clip_render", "skipped", "output exists and overwrite is off")...)...)
		return clip, nil
	}

	partial := filepath.Join(src.WorkDir(), fmt.Sprintf("clip-%03d.mp3", out.Index))
	err := s.renderer.RenderClip(ctx, src.MediaPath, partial, ffmpeg.ClipOptions{
		Start:     out.Start,
		End:       out.End,
		MapSpec:   src.Audio.MapSpec(),
		Normalize: s.cfg.Output.Normalize,
		Quality:   s.cfg.Output.MP3Quality,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return clip, ctxErr
		}
		return clip, fmt.Errorf("render %s: %w", out.Name, err)
	}
	if err := fileutil.MoveFile(partial, out.Path); err != nil {
		return clip, services.Wrap(services.ErrTransient, "render", "publish clip", out.Name, err)
	}
	logger.Debug("clip rendered",
		logging.String("clip", out.Name),
		logging.Seconds("start", out.Start),
		logging.Seconds("end", out.End),
	)

	if s.uploader != nil {
		location, err := s.uploader.Upload(ctx, storage.ClipKey(naming.BaseName(src.Path), out.Path), out.Path)
		if err != nil {
			return clip, err
		}
		clip.Location = location
	}
	return clip, nil
}

func (s *Splitter) fail(ctx context.Context, report Report, err error) Report {
	logger := logging.WithContext(ctx, s.logger)
	report.Status = StatusFailed
	report.Outcome = services.Classify(err)
	report.Err = err
	report.Error = err.Error()

	switch report.Outcome {
	case services.OutcomeCanceled:
		logger.Info("processing canceled", logging.Error(err))
	case services.OutcomeUndecodable:
		logging.WarnWithContext(logger, "source has no decodable audio", "source_undecodable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the file plays and contains an audio stream"),
			logging.String(logging.FieldImpact, "file skipped"),
		)
	case services.OutcomeNotReady:
		logging.WarnWithContext(logger, "source duration unavailable", "source_not_ready",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retry once the recording has finished writing"),
			logging.String(logging.FieldImpact, "file deferred"),
		)
	default:
		logging.ErrorWithContext(logger, "processing failed", "source_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, errorHint(err)),
		)
	}
	return report
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, services.ErrExternalTool):
		return "run quietcut doctor to check ffmpeg and ffprobe"
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConfiguration):
		return "run quietcut config validate"
	case errors.Is(err, services.ErrTransient):
		return "retry with quietcut history retry"
	default:
		return "check logs for details"
	}
}

func (s *Splitter) cleanup(ctx context.Context, src *source.Source) {
	if err := src.Cleanup(); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "work directory cleanup failed", "cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "scratch files left in work_dir"),
		)
	}
}
