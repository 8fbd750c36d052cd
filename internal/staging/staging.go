// Package staging manages the per-rip temporary directories that disc imports
// create under the configured staging directory. A directory is left behind
// when a rip is interrupted before its source is closed.
package staging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Prefix starts the name of every rip directory.
const Prefix = "disc-"

// Pattern is the os.MkdirTemp pattern for a new rip directory.
const Pattern = Prefix + "*"

// DirInfo describes one rip directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	Files   int
}

// Age reports how long ago the directory was last modified.
func (d DirInfo) Age(now time.Time) time.Duration {
	return now.Sub(d.ModTime)
}

// ListDirectories returns the rip directories under stagingDir, oldest first.
// Other entries are ignored. A missing or unset staging directory has none.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), Prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(stagingDir, entry.Name())
		size, files := dirSize(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
			Files:   files,
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].ModTime.Before(dirs[j].ModTime) })
	return dirs, nil
}

func dirSize(path string) (int64, int) {
	var size int64
	var files int
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				size += info.Size()
				files++
			}
		}
		return nil
	})
	return size, files
}
