package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// FLACBytes returns a minimal FLAC stream holding only a STREAMINFO block
// that reports the given duration at 44.1kHz stereo, followed by filler bytes
// that stand in for audio frames.
func FLACBytes(durationMS uint64) []byte {
	const sampleRate = 44100
	samples := durationMS * sampleRate / 1000

	info := make([]byte, 34)
	binary.BigEndian.PutUint16(info[0:2], 4096)
	binary.BigEndian.PutUint16(info[2:4], 4096)
	packed := uint64(sampleRate)<<44 | uint64(2-1)<<41 | uint64(16-1)<<36 | samples
	binary.BigEndian.PutUint64(info[10:18], packed)

	data := []byte("fLaC")
	data = append(data, 0x80, 0, 0, byte(len(info)))
	data = append(data, info...)
	return append(data, bytes.Repeat([]byte{0xff, 0xf8}, 64)...)
}

// WriteFLAC writes FLACBytes(durationMS) to path.
func WriteFLAC(t testing.TB, path string, durationMS uint64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, FLACBytes(durationMS), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
