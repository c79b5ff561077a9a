package detect

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"quietcut/internal/logging"
	"quietcut/internal/services"
)

// WindowSampler reports the normalized peak amplitude of [start, end) seconds
// of a source. Implementations may assume windows are requested in order.
type WindowSampler interface {
	Peak(ctx context.Context, start, end float64) (float64, error)
}

// Result is the outcome of a complete scan.
type Result struct {
	Duration  float64    `json:"duration"`
	Windows   []Window   `json:"-"`
	Raw       []Interval `json:"raw"`
	Intervals []Interval `json:"intervals"`
	Segments  []Segment  `json:"segments"`
}

// Silent reports whether the scan found nothing to keep.
func (r Result) Silent() bool {
	return len(r.Segments) == 0
}

// SilentWindows counts windows labelled silent.
func (r Result) SilentWindows() int {
	n := 0
	for _, w := range r.Windows {
		if w.Silent {
			n++
		}
	}
	return n
}

// Detector runs the full classification pipeline for one configuration.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and returns a detector bound to it.
func New(cfg Config, logger *slog.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, logger: logging.NewComponentLogger(logger, "detect")}, nil
}

// Config returns the parameters the detector was built with.
func (d *Detector) Config() Config {
	return d.cfg
}

// Run samples every window of a source lasting duration seconds and returns
// the planned segments. Cancellation is checked between windows; on any
// failure no partial result is returned.
func (d *Detector) Run(ctx context.Context, sampler WindowSampler, duration float64) (Result, error) {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return Result{}, services.Wrap(services.ErrDurationUnavailable, "detect", "duration",
			fmt.Sprintf("unusable duration %v", duration), nil)
	}

	logger := logging.WithContext(ctx, d.logger)
	windows := Windows(duration, d.cfg.WindowSize)
	peaks := make([]float64, len(windows))
	progress := logging.NewProgressSampler(10)

	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("scan windows: %w", err)
		}
		peak, err := sampler.Peak(ctx, w.Start, w.End)
		if err != nil {
			return Result{}, fmt.Errorf("sample window %d: %w", w.Index, err)
		}
		if math.IsNaN(peak) || peak < 0 {
			return Result{}, services.Wrap(services.ErrUndecodable, "detect", "sample",
				fmt.Sprintf("window %d reported peak %v", w.Index, peak), nil)
		}
		peaks[i] = peak
		percent := float64(i+1) / float64(len(windows)) * 100
		if progress.ShouldLog(percent, "scan") {
			logger.Debug("scanning windows",
				logging.Int("window", i+1),
				logging.Int("windows", len(windows)),
				logging.Float64("percent", math.Round(percent)),
			)
		}
	}

	labels := Labels(peaks, d.cfg.VolumeThreshold)
	for i := range windows {
		windows[i].Silent = labels[i]
	}

	raw := Extract(labels, d.cfg, duration)
	cleaned := Clean(raw, d.cfg.SilenceMinLen)
	segments := Plan(cleaned, d.cfg.TrimEdgesOnly)

	result := Result{
		Duration:  duration,
		Windows:   windows,
		Raw:       raw,
		Intervals: cleaned,
		Segments:  segments,
	}
	logger.Info("detection complete",
		logging.String(logging.FieldEventType, "detection_complete"),
		logging.Int("windows", len(windows)),
		logging.Int("silent_windows", result.SilentWindows()),
		logging.Int("raw_intervals", len(raw)),
		logging.Int("segments", len(segments)),
	)
	return result, nil
}
