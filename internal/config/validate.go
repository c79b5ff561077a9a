package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate ensures the configuration is usable. Out-of-range values are
// reported, never clamped.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if !finite(d.WindowSize) || d.WindowSize <= 0 {
		return errors.New("detection.window_size must be positive")
	}
	if !finite(d.VolumeThreshold) || d.VolumeThreshold < 0 {
		return errors.New("detection.volume_threshold must be non-negative")
	}
	if !finite(d.EaseIn) || d.EaseIn < 0 {
		return errors.New("detection.ease_in must be non-negative")
	}
	if !finite(d.SilenceMinLen) || d.SilenceMinLen < 0 {
		return errors.New("detection.silence_min_len must be non-negative (minutes)")
	}
	if d.SampleRate < 8000 || d.SampleRate > 192000 {
		return errors.New("detection.sample_rate must be between 8000 and 192000")
	}
	return nil
}

func (c *Config) validateOutput() error {
	for key, tmpl := range map[string]string{
		"output.name_template":  c.Output.NameTemplate,
		"output.edges_template": c.Output.EdgesTemplate,
	} {
		if strings.ContainsAny(tmpl, `/\`) {
			return fmt.Errorf("%s must not contain path separators", key)
		}
	}
	if strings.ContainsAny(c.Output.Subdir, `/\`) || c.Output.Subdir == ".." {
		return errors.New("output.subdir must be a single directory name")
	}
	if c.Output.MP3Quality < 0 || c.Output.MP3Quality > 9 {
		return errors.New("output.mp3_quality must be between 0 and 9")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must be zero (auto) or positive")
	}
	if c.Batch.SeenCapacity < 0 {
		return errors.New("batch.seen_capacity must be positive")
	}
	if len(c.Batch.Extensions) == 0 {
		return errors.New("batch.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if !c.Upload.Enabled {
		return nil
	}
	if c.Upload.Bucket == "" {
		return errors.New("upload.bucket is required when upload.enabled is true (or set QUIETCUT_S3_BUCKET)")
	}
	if (c.Upload.AccessKeyID == "") != (c.Upload.SecretAccessKey == "") {
		return errors.New("upload.access_key_id and upload.secret_access_key must be set together")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return errors.New("notifications.ntfy_topic must be a full http(s) URL")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be non-negative")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
