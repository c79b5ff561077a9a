package preflight

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"

	"quietcut/internal/staging"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minFree
// bytes available.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	usage, err := disk.Usage(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free of %s", humanize.IBytes(usage.Free), humanize.IBytes(usage.Total))
	if usage.Free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need at least %s)", detail, humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckScratch reports scratch directories left in workDir by interrupted
// runs. It is advisory: the next split or scan sweeps expired ones.
func CheckScratch(name, workDir string) Result {
	dirs, err := staging.List(workDir)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", workDir, err)}
	}
	if len(dirs) == 0 {
		return Result{Name: name, Optional: true, Passed: true, Detail: "no leftover scratch directories"}
	}
	var total int64
	for _, d := range dirs {
		total += d.Size
	}
	return Result{
		Name:     name,
		Optional: true,
		Detail: fmt.Sprintf("%d leftover scratch %s (%s), oldest %s", len(dirs),
			pluralDirs(len(dirs)), humanize.IBytes(uint64(total)), humanize.Time(dirs[0].ModTime)),
	}
}

func pluralDirs(n int) string {
	if n == 1 {
		return "directory"
	}
	return "directories"
}
