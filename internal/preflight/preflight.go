package preflight

import (
	"context"
	"fmt"
	"strings"

	"quietcut/internal/config"
	"quietcut/internal/deps"
)

// MinFreeBytes is the free space below which the work directory check fails.
const MinFreeBytes uint64 = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
	Optional bool   `json:"optional,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range deps.CheckBinaries(ctx, deps.MediaRequirements(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary)) {
		results = append(results, fromDependency(status))
	}

	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes))
	results = append(results, CheckScratch("Scratch directories", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Paths.OutputDir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}
	if cfg.Upload.Enabled {
		results = append(results, CheckUploadConfig(cfg.Upload))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// CheckUploadConfig verifies the S3 settings are complete. It does not
// contact the endpoint.
func CheckUploadConfig(upload config.Upload) Result {
	const name = "S3 upload"
	if strings.TrimSpace(upload.Bucket) == "" {
		return Result{Name: name, Detail: "missing bucket"}
	}
	if (upload.AccessKeyID == "") != (upload.SecretAccessKey == "") {
		return Result{Name: name, Detail: "only one of access_key_id and secret_access_key is set"}
	}
	detail := "s3://" + upload.Bucket
	if upload.Prefix != "" {
		detail += "/" + upload.Prefix
	}
	if upload.Endpoint != "" {
		detail += fmt.Sprintf(" via %s", upload.Endpoint)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

func fromDependency(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case !status.Available:
		result.Detail = status.Detail
	case status.Version != "":
		result.Detail = fmt.Sprintf("%s (%s)", status.Path, status.Version)
	default:
		result.Detail = status.Path
	}
	return result
}
