package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir" env:"QUIETCUT_OUTPUT_DIR, overwrite"`
	WorkDir    string `toml:"work_dir" env:"QUIETCUT_WORK_DIR, overwrite"`
	LogDir     string `toml:"log_dir" env:"QUIETCUT_LOG_DIR, overwrite"`
	LedgerPath string `toml:"ledger_path" env:"QUIETCUT_LEDGER_PATH, overwrite"`
}

// Detection holds the silence detection knobs in their human-facing units.
type Detection struct {
	WindowSize      float64 `toml:"window_size" env:"QUIETCUT_WINDOW_SIZE, overwrite"`
	VolumeThreshold float64 `toml:"volume_threshold" env:"QUIETCUT_VOLUME_THRESHOLD, overwrite"`
	EaseIn          float64 `toml:"ease_in" env:"QUIETCUT_EASE_IN, overwrite"`
	// SilenceMinLen is in minutes.
	SilenceMinLen float64 `toml:"silence_min_len" env:"QUIETCUT_SILENCE_MIN_LEN, overwrite"`
	TrimEdgesOnly bool    `toml:"trim_edges_only" env:"QUIETCUT_TRIM_EDGES_ONLY, overwrite"`
	SampleRate    int     `toml:"sample_rate" env:"QUIETCUT_SAMPLE_RATE, overwrite"`
}

// Output controls clip naming and rendering.
type Output struct {
	NameTemplate  string `toml:"name_template" env:"QUIETCUT_NAME_TEMPLATE, overwrite"`
	EdgesTemplate string `toml:"edges_template" env:"QUIETCUT_EDGES_TEMPLATE, overwrite"`
	Subdir        string `toml:"subdir"`
	Normalize     bool   `toml:"normalize" env:"QUIETCUT_NORMALIZE, overwrite"`
	Overwrite     bool   `toml:"overwrite" env:"QUIETCUT_OVERWRITE, overwrite"`
	MP3Quality    int    `toml:"mp3_quality"`
}

// Batch controls discovery and concurrency.
type Batch struct {
	Workers      int      `toml:"workers" env:"QUIETCUT_WORKERS, overwrite"`
	Extensions   []string `toml:"extensions" env:"QUIETCUT_EXTENSIONS, overwrite"`
	SeenCapacity int      `toml:"seen_capacity"`
	UseLedger    bool     `toml:"use_ledger" env:"QUIETCUT_USE_LEDGER, overwrite"`
}

// Media names the external tools and recovery behaviour.
type Media struct {
	FFmpegBinary   string `toml:"ffmpeg_binary" env:"QUIETCUT_FFMPEG, overwrite"`
	FFprobeBinary  string `toml:"ffprobe_binary" env:"QUIETCUT_FFPROBE, overwrite"`
	RepairDuration bool   `toml:"repair_duration"`
}

// Upload configures optional S3 publication of rendered clips.
type Upload struct {
	Enabled         bool   `toml:"enabled" env:"QUIETCUT_UPLOAD, overwrite"`
	Bucket          string `toml:"bucket" env:"QUIETCUT_S3_BUCKET, overwrite"`
	Region          string `toml:"region" env:"QUIETCUT_S3_REGION, overwrite"`
	Endpoint        string `toml:"endpoint" env:"QUIETCUT_S3_ENDPOINT, overwrite"`
	Prefix          string `toml:"prefix" env:"QUIETCUT_S3_PREFIX, overwrite"`
	UsePathStyle    bool   `toml:"use_path_style"`
	AccessKeyID     string `toml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `toml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
}

// Notifications configures ntfy alerts for batch runs.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic" env:"QUIETCUT_NTFY_TOPIC, overwrite"`
	RequestTimeout int    `toml:"request_timeout"`
	NotifyFailures bool   `toml:"notify_failures"`
}

// Logging contains log output configuration.
type Logging struct {
	Format        string `toml:"format" env:"QUIETCUT_LOG_FORMAT, overwrite"`
	Level         string `toml:"level" env:"QUIETCUT_LOG_LEVEL, overwrite"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for quietcut.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Detection     Detection     `toml:"detection"`
	Output        Output        `toml:"output"`
	Batch         Batch         `toml:"batch"`
	Media         Media         `toml:"media"`
	Upload        Upload        `toml:"upload"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the user config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quietcut/config.toml")
}

// Load reads configuration from disk, overlays the environment, and applies
// defaults. It returns the config, the resolved path, and whether the file
// existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(context.Background(), envconfig.OsLookuper()); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: c, Lookuper: lookuper}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("quietcut.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the working, log, and ledger directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.LogDir}
	if c.Paths.LedgerPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.LedgerPath))
	}
	if c.Paths.OutputDir != "" {
		dirs = append(dirs, c.Paths.OutputDir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Upload.SecretAccessKey != "" {
		c.Upload.SecretAccessKey = "********"
	}
	return c
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath resolves ~ and relative segments into an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
