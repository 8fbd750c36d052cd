package fingerprint

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"
)

// Compute returns the source ID for a disc whose tracks last durationsMS
// milliseconds, in track order. Each duration is hashed as an unsigned 64-bit
// little-endian integer and the SHA-256 digest is encoded as unpadded
// URL-safe base64 (43 characters).
func Compute(durationsMS []uint64) string {
	h := sha256.New()
	var buf [8]byte
	for _, d := range durationsMS {
		binary.LittleEndian.PutUint64(buf[:], d)
		_, _ = h.Write(buf[:])
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// FromDurations is Compute for time.Duration values, truncated to whole
// milliseconds. Negative durations count as zero.
func FromDurations(durations []time.Duration) string {
	ms := make([]uint64, len(durations))
	for i, d := range durations {
		if d > 0 {
			ms[i] = uint64(d.Milliseconds())
		}
	}
	return Compute(ms)
}

// Valid reports whether id has the shape of a value returned by Compute.
func Valid(id string) bool {
	if len(id) != base64.RawURLEncoding.EncodedLen(sha256.Size) {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(id)
	return err == nil && len(decoded) == sha256.Size
}
