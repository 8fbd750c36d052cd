package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"musicus/internal/tagging"
)

// FolderSource imports FLAC files that already exist in a directory, in file
// name order.
type FolderSource struct {
	dir string
}

// NewFolderSource returns a source for the FLAC files in dir.
func NewFolderSource(dir string) *FolderSource {
	return &FolderSource{dir: dir}
}

func (f *FolderSource) Discover(ctx context.Context) ([]Track, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, &IOError{Op: "read dir", Path: f.dir, Err: err}
	}
	var tracks []Track
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".flac") {
			continue
		}
		path := filepath.Join(f.dir, entry.Name())
		duration, err := tagging.FLACDuration(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		tracks = append(tracks, Track{
			Number:   len(tracks) + 1,
			Name:     tagging.ReadTitle(path),
			Duration: duration,
			Path:     path,
		})
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTracks, f.dir)
	}
	return tracks, nil
}

// Copy only checks that the files are still in place; Finalize does the
// actual copy into the library.
func (f *FolderSource) Copy(ctx context.Context, tracks []Track, progress func(index int)) error {
	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if progress != nil {
			progress(i)
		}
		if _, err := os.Stat(track.Path); err != nil {
			return &IOError{Op: "stat", Path: track.Path, Err: err}
		}
	}
	return nil
}
