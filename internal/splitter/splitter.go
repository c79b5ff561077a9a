package splitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"quietcut/internal/config"
	"quietcut/internal/detect"
	"quietcut/internal/logging"
	"quietcut/internal/media/ffmpeg"
	"quietcut/internal/media/ffprobe"
	"quietcut/internal/media/source"
	"quietcut/internal/naming"
	"quietcut/internal/storage"
)

// EmptyMessage is reported when a source contains no speech.
const EmptyMessage = "Audio was silent, no clips created."

// Renderer encodes one clip.
type Renderer interface {
	RenderClip(ctx context.Context, src, dst string, opts ffmpeg.ClipOptions) error
}

// Dependencies are the external collaborators of a Splitter.
type Dependencies struct {
	Prober     source.Prober
	Transcoder source.Transcoder
	Renderer   Renderer
	// Uploader is optional; nil keeps clips local.
	Uploader storage.Uploader
}

// Splitter processes single files.
type Splitter struct {
	cfg      *config.Config
	detector *detect.Detector
	naming   naming.Config
	opener   *source.Opener
	renderer Renderer
	uploader storage.Uploader
	logger   *slog.Logger
}

// DetectionConfig converts the human-facing detection settings into detector
// parameters. silence_min_len is configured in minutes.
func DetectionConfig(cfg *config.Config) detect.Config {
	d := cfg.Detection
	return detect.Config{
		WindowSize:      d.WindowSize,
		VolumeThreshold: d.VolumeThreshold,
		EaseIn:          d.EaseIn,
		SilenceMinLen:   d.SilenceMinLen * 60,
		TrimEdgesOnly:   d.TrimEdgesOnly,
	}
}

// NamingConfig extracts the clip naming settings.
func NamingConfig(cfg *config.Config) naming.Config {
	return naming.Config{
		Template:      cfg.Output.NameTemplate,
		EdgesTemplate: cfg.Output.EdgesTemplate,
		OutputDir:     cfg.Paths.OutputDir,
		Subdir:        cfg.Output.Subdir,
	}
}

// New builds a Splitter backed by the configured ffmpeg and ffprobe binaries,
// plus an S3 uploader when uploads are enabled.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Splitter, error) {
	runner := ffmpeg.Runner{Binary: cfg.Media.FFmpegBinary}
	deps := Dependencies{
		Prober:     ffprobe.Prober{Binary: cfg.Media.FFprobeBinary},
		Transcoder: runner,
		Renderer:   runner,
	}
	if cfg.Upload.Enabled {
		uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:          cfg.Upload.Bucket,
			Region:          cfg.Upload.Region,
			Endpoint:        cfg.Upload.Endpoint,
			Prefix:          cfg.Upload.Prefix,
			UsePathStyle:    cfg.Upload.UsePathStyle,
			AccessKeyID:     cfg.Upload.AccessKeyID,
			SecretAccessKey: cfg.Upload.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		deps.Uploader = uploader
	}
	return NewWithDependencies(cfg, logger, deps)
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, deps Dependencies) (*Splitter, error) {
	detector, err := detect.New(DetectionConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	names := NamingConfig(cfg)
	if err := names.Validate(); err != nil {
		return nil, fmt.Errorf("output naming: %w", err)
	}
	if err := os.MkdirAll(cfg.Paths.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	opener := source.NewOpener(deps.Prober, deps.Transcoder, source.Options{
		WorkDir:        cfg.Paths.WorkDir,
		SampleRate:     cfg.Detection.SampleRate,
		RepairDuration: cfg.Media.RepairDuration,
	}, logger)
	return &Splitter{
		cfg:      cfg,
		detector: detector,
		naming:   names,
		opener:   opener,
		renderer: deps.Renderer,
		uploader: deps.Uploader,
		logger:   logging.NewComponentLogger(logger, "splitter"),
	}, nil
}
