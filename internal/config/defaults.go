package config

const (
	defaultWorkDir         = "~/.cache/quietcut/work"
	defaultLogDir          = "~/.local/share/quietcut/logs"
	defaultLedgerPath      = "~/.local/share/quietcut/ledger.db"
	defaultLogRetention    = 30
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultWindowSize      = 1.0
	defaultVolumeThreshold = 0.01
	defaultEaseIn          = 0.6
	defaultSilenceMinLen   = 5.0
	defaultSampleRate      = 16000
	defaultNameTemplate    = "{filename}_clip_{index}"
	defaultEdgesTemplate   = "{filename}"
	defaultOutputSubdir    = "processed"
	defaultMP3Quality      = 2
	defaultSeenCapacity    = 4096
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultS3Region        = "us-east-1"
	defaultNtfyTimeout     = 10
)

// DefaultExtensions lists the media types picked up by folder scans.
var DefaultExtensions = []string{".mp4", ".webm", ".mov", ".avi", ".mp3", ".wav", ".ogg", ".flac"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath,
		},
		Detection: Detection{
			WindowSize:      defaultWindowSize,
			VolumeThreshold: defaultVolumeThreshold,
			EaseIn:          defaultEaseIn,
			SilenceMinLen:   defaultSilenceMinLen,
			SampleRate:      defaultSampleRate,
		},
		Output: Output{
			NameTemplate:  defaultNameTemplate,
			EdgesTemplate: defaultEdgesTemplate,
			Subdir:        defaultOutputSubdir,
			MP3Quality:    defaultMP3Quality,
		},
		Batch: Batch{
			Extensions:   append([]string(nil), DefaultExtensions...),
			SeenCapacity: defaultSeenCapacity,
			UseLedger:    true,
		},
		Media: Media{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			RepairDuration: true,
		},
		Upload: Upload{
			Region: defaultS3Region,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			NotifyFailures: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
	}
}
