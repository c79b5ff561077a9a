// Package source prepares a media file for detection: it probes what the file
// contains, repairs containers that lack duration metadata, picks the audio
// stream, and decodes it to WAV for the window sampler.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"quietcut/internal/logging"
	"quietcut/internal/media/audio"
	"quietcut/internal/media/ffprobe"
	"quietcut/internal/media/pcm"
	"quietcut/internal/services"
	"quietcut/internal/staging"
)

// Prober inspects media files.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Transcoder performs the ffmpeg steps source preparation needs.
type Transcoder interface {
	Remux(ctx context.Context, src, dst string) error
	DecodeWAV(ctx context.Context, src, mapSpec string, sampleRate int, dst string) error
}

// Options configures source preparation.
type Options struct {
	WorkDir        string
	SampleRate     int
	RepairDuration bool
}

// Opener probes and prepares sources.
type Opener struct {
	prober     Prober
	transcoder Transcoder
	opts       Options
	logger     *slog.Logger
}

// NewOpener wires an Opener.
func NewOpener(prober Prober, transcoder Transcoder, opts Options, logger *slog.Logger) *Opener {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	return &Opener{
		prober:     prober,
		transcoder: transcoder,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "source"),
	}
}

// Source is a probed media file ready for detection and rendering.
type Source struct {
	// Path is the file the caller asked for.
	Path string
	// MediaPath is the file to decode and cut from: Path, or a remuxed copy
	// when the original lacked duration metadata.
	MediaPath string
	Kind      ffprobe.Kind
	Duration  float64
	Audio     audio.Selection
	Repaired  bool

	transcoder Transcoder
	sampleRate int
	workDir    string
}

// Open probes path. Files without audio are reported as undecodable; files
// whose duration cannot be recovered are reported as not ready.
func (o *Opener) Open(ctx context.Context, path string) (*Source, error) {
	logger := logging.WithContext(ctx, o.logger)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "source", "stat", path, err)
		}
		return nil, services.Wrap(services.ErrTransient, "source", "stat", path, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "source", "stat", "path is a directory", nil)
	}

	probe, err := o.prober.Inspect(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrUndecodable, "source", "probe", filepath.Base(path), err)
	}
	kind := probe.Kind()
	if kind == ffprobe.KindNoAudio {
		return nil, services.Wrap(services.ErrUndecodable, "source", "probe", "no audio stream", nil)
	}

	workDir, err := os.MkdirTemp(o.opts.WorkDir, staging.ScratchPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	src := &Source{
		Path:       path,
		MediaPath:  path,
		Kind:       kind,
		transcoder: o.transcoder,
		sampleRate: o.opts.SampleRate,
		workDir:    workDir,
	}

	duration, ok := probe.UsableDuration()
	if !ok && o.opts.RepairDuration {
		logger.Info("duration missing; remuxing",
			logging.Args(logging.DecisionAttrs("duration_repair", "remux", "container has no usable duration")...)...)
		repaired, repairedProbe, err := o.repair(ctx, path, workDir)
		if err != nil {
			src.Cleanup()
			return nil, err
		}
		if d, ok2 := repairedProbe.UsableDuration(); ok2 {
			src.MediaPath = repaired
			src.Repaired = true
			probe = repairedProbe
			duration, ok = d, true
		}
	}
	if !ok {
		src.Cleanup()
		return nil, services.Wrap(services.ErrDurationUnavailable, "source", "duration",
			"container reports no usable duration", nil)
	}

	src.Duration = duration
	src.Audio = audio.Select(probe.Streams)
	logger.Info("source probed",
		logging.String(logging.FieldEventType, "source_probed"),
		logging.String("kind", kind.String()),
		logging.Seconds("duration_seconds", duration),
		logging.String("audio", src.Audio.Label()),
		logging.Bool("repaired", src.Repaired),
	)
	return src, nil
}

func (o *Opener) repair(ctx context.Context, path, workDir string) (string, ffprobe.Result, error) {
	dst := filepath.Join(workDir, "remux"+filepath.Ext(path))
	if err := o.transcoder.Remux(ctx, path, dst); err != nil {
		return "", ffprobe.Result{}, services.Wrap(services.ErrDurationUnavailable, "source", "remux", "duration repair failed", err)
	}
	probe, err := o.prober.Inspect(ctx, dst)
	if err != nil {
		return "", ffprobe.Result{}, services.Wrap(services.ErrDurationUnavailable, "source", "probe", "remuxed copy", err)
	}
	return dst, probe, nil
}

// Sampler decodes the selected audio stream to WAV and opens a window
// sampler over it. Callers must Close the sampler.
func (s *Source) Sampler(ctx context.Context) (*pcm.Sampler, error) {
	wavPath := filepath.Join(s.workDir, "analysis.wav")
	if err := s.transcoder.DecodeWAV(ctx, s.MediaPath, s.Audio.MapSpec(), s.sampleRate, wavPath); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrUndecodable, "source", "decode", filepath.Base(s.Path), err)
	}
	return pcm.Open(wavPath)
}

// WorkDir returns the scratch directory owned by this source.
func (s *Source) WorkDir() string {
	return s.workDir
}

// Cleanup removes the scratch directory.
func (s *Source) Cleanup() error {
	if s.workDir == "" {
		return nil
	}
	err := os.RemoveAll(s.workDir)
	s.workDir = ""
	return err
}
