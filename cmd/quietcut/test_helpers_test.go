package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quietcut/internal/config"
	"quietcut/internal/testsupport"
)

// twoPhrases decodes to two four-second phrases separated by silence.
var twoPhrases = []testsupport.Tone{
	{Seconds: 2},
	{Seconds: 4, Amplitude: 0.5},
	{Seconds: 3},
	{Seconds: 4, Amplitude: 0.5},
	{Seconds: 2},
}

const audioProbeJSON = `{
  "streams": [{"index": 0, "codec_name": "mp3", "codec_type": "audio", "sample_rate": "44100", "channels": 2}],
  "format": {"nb_streams": 1, "duration": "15.000000", "format_name": "mp3"}
}`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	mediaDir   string
	probePath  string
}

// setupCLITestEnv writes a config and installs ffmpeg/ffprobe stubs. The
// ffprobe stub prints probePath; the ffmpeg stub copies a prepared WAV to
// its final argument, so decode and render both succeed.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithDetection(1.0, 0.1, 0.5, 1.0/60))
	cfg.Detection.SampleRate = 8000
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	fixture := filepath.Join(base, "fixtures", "decoded.wav")
	testsupport.WriteWAV(t, fixture, cfg.Detection.SampleRate, twoPhrases...)
	probePath := filepath.Join(base, "fixtures", "probe.json")
	testsupport.WriteFile(t, probePath, audioProbeJSON)

	binDir := filepath.Join(base, "bin")
	writeStub(t, filepath.Join(binDir, "ffprobe"), fmt.Sprintf(
		"#!/bin/sh\nif [ \"$1\" = \"-version\" ]; then echo 'ffprobe version stub'; exit 0; fi\ncat %q\n", probePath))
	writeStub(t, filepath.Join(binDir, "ffmpeg"), fmt.Sprintf(
		"#!/bin/sh\nif [ \"$1\" = \"-version\" ]; then echo 'ffmpeg version stub'; exit 0; fi\nfor last; do :; done\ncp %q \"$last\"\n", fixture))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		mediaDir:   filepath.Join(base, "media"),
		probePath:  probePath,
	}
}

func (e *cliTestEnv) addMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	testsupport.WriteFile(t, path, "not really media")
	return path
}

func writeStub(t *testing.T, path, script string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}
