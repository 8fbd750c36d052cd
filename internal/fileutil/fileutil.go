// Package fileutil copies files into the music library.
package fileutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyOptions controls how Copy writes the destination.
type CopyOptions struct {
	// Mode is applied to the destination; 0o644 when zero.
	Mode os.FileMode
	// Verify re-reads the destination from disk and compares its SHA-256 and
	// size with the source.
	Verify bool
}

// Copy writes src to a temp file beside dst and renames it into place, so dst
// either does not exist or holds the complete copy. It returns the number of
// bytes copied.
func Copy(ctx context.Context, src, dst string, opts CopyOptions) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	mode := opts.Mode
	if mode == 0 {
		mode = 0o644
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(tmp, io.TeeReader(contextReader{ctx: ctx, r: in}, srcHasher))
	if err != nil {
		return written, err
	}
	if err := tmp.Chmod(mode); err != nil {
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}

	if opts.Verify {
		if err := verify(tmpPath, written, srcHasher.Sum(nil)); err != nil {
			return written, err
		}
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return written, err
	}
	committed = true
	return written, nil
}

func verify(path string, size int64, sum []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reopen copy: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return fmt.Errorf("read back copy: %w", err)
	}
	if n != size {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", size, n)
	}
	if !bytes.Equal(h.Sum(nil), sum) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
