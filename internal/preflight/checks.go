package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"musicus/internal/config"
	"musicus/internal/disc"
	"musicus/internal/library"
	"musicus/internal/staging"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
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

// CheckDatabase opens the library database, which creates it when missing
// and fails when an existing file carries a different schema.
func CheckDatabase(_ context.Context, cfg *config.Config) Result {
	const name = "Library database"

	store, err := library.OpenPath(cfg.Paths.DatabasePath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Paths.DatabasePath, err)}
	}
	defer store.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema ok)", store.Path())}
}

// CheckDrive reports the optical drive state. An empty drive passes; the
// check only fails when the device cannot be queried at all. It is optional
// because folder imports do not need a drive.
func CheckDrive(device string) Result {
	const name = "Optical drive"

	status, err := disc.CheckDriveStatus(device)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (%s)", device, status)}
}

// CheckStagingLeftovers warns about rip directories left by interrupted
// imports. It never blocks an import.
func CheckStagingLeftovers(stagingDir string) Result {
	const name = "Staging leftovers"

	dirs, err := staging.ListDirectories(stagingDir)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", stagingDir, err)}
	}
	if len(dirs) == 0 {
		return Result{Name: name, Passed: true, Optional: true, Detail: "none"}
	}
	var total int64
	for _, d := range dirs {
		total += d.Size
	}
	return Result{
		Name:     name,
		Optional: true,
		Detail:   fmt.Sprintf("%d interrupted rip(s), %d bytes (run `musicus staging clean`)", len(dirs), total),
	}
}
