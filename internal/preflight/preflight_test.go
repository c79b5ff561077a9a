package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quietcut/internal/config"
	"quietcut/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with a 1 byte minimum, got %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with an impossible minimum")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for a missing path")
	}
}

func TestCheckUploadConfig(t *testing.T) {
	cases := []struct {
		name   string
		upload config.Upload
		passed bool
	}{
		{"missing bucket", config.Upload{Enabled: true}, false},
		{"half credentials", config.Upload{Enabled: true, Bucket: "b", AccessKeyID: "id"}, false},
		{"default chain", config.Upload{Enabled: true, Bucket: "b", Prefix: "talks"}, true},
		{"static credentials", config.Upload{Enabled: true, Bucket: "b", AccessKeyID: "id", SecretAccessKey: "secret"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckUploadConfig(tc.upload); got.Passed != tc.passed {
				t.Fatalf("Passed = %v, want %v (%s)", got.Passed, tc.passed, got.Detail)
			}
		})
	}
}

func TestRunAllWithStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.Paths.OutputDir = ""

	results := RunAll(context.Background(), cfg)
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, want := range []string{"FFmpeg", "FFprobe", "Work directory", "Log directory"} {
		r, ok := names[want]
		if !ok {
			t.Fatalf("missing check %q in %#v", want, results)
		}
		if !r.Passed {
			t.Fatalf("check %q failed: %s", want, r.Detail)
		}
	}
	if _, ok := names["Output directory"]; ok {
		t.Fatal("output directory is only checked when configured")
	}
	if _, ok := names["S3 upload"]; ok {
		t.Fatal("upload check should be skipped when disabled")
	}
}

func TestRunAllReportsMissingBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Media.FFmpegBinary = "quietcut-missing-ffmpeg"
	cfg.Upload.Enabled = true

	failed := Failed(RunAll(context.Background(), cfg))
	found := map[string]bool{}
	for _, r := range failed {
		found[r.Name] = true
	}
	if !found["FFmpeg"] {
		t.Fatalf("expected FFmpeg failure, got %#v", failed)
	}
	if !found["S3 upload"] {
		t.Fatalf("expected upload failure for missing bucket, got %#v", failed)
	}
	if !found["Work directory"] {
		t.Fatalf("work directory was never created, got %#v", failed)
	}
}

func TestCheckScratch(t *testing.T) {
	workDir := t.TempDir()
	if result := CheckScratch("scratch", workDir); !result.Passed || !result.Optional {
		t.Fatalf("expected optional pass for clean work dir, got %+v", result)
	}

	if err := os.MkdirAll(filepath.Join(workDir, "src-123", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	result := CheckScratch("scratch", workDir)
	if result.Passed {
		t.Fatal("expected leftover scratch directory to be reported")
	}
	if !result.Optional {
		t.Fatal("scratch check must stay optional")
	}
	if len(Failed([]Result{result})) != 0 {
		t.Fatal("optional results must not count as failures")
	}
}
