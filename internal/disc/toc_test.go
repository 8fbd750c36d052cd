package disc

import (
	"errors"
	"testing"
	"time"
)

const sampleTOC = `cdparanoia III release 10.2 (September 11, 2008)

Table of contents (audio tracks only):
track        length               begin        copy pre ch
===========================================================
  1.    16503 [03:40.03]        0 [00:00.00]    no   no  2
  2.      375 [00:05.00]    16503 [03:40.03]    no   no  2
 10.       74 [00:00.74]    16878 [03:45.03]    no   no  2
TOTAL   16952 [03:46.02]    (audio only)
`

func TestParseTOC(t *testing.T) {
	entries, err := ParseTOC(sampleTOC)
	if err != nil {
		t.Fatalf("ParseTOC: %v", err)
	}
	want := []TOCEntry{
		{Number: 1, Duration: 220040 * time.Millisecond},
		{Number: 2, Duration: 5 * time.Second},
		{Number: 10, Duration: 986 * time.Millisecond},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParseTOCWithoutTracks(t *testing.T) {
	_, err := ParseTOC("cdparanoia III\n\nUnable to open disc.\n")
	if !errors.Is(err, ErrNoAudioTracks) {
		t.Fatalf("expected ErrNoAudioTracks, got %v", err)
	}
}

func TestSectorsToDuration(t *testing.T) {
	tests := []struct {
		sectors int64
		want    time.Duration
	}{
		{0, 0},
		{75, time.Second},
		{1, 13 * time.Millisecond},
		{4500, time.Minute},
	}
	for _, tt := range tests {
		if got := SectorsToDuration(tt.sectors); got != tt.want {
			t.Fatalf("SectorsToDuration(%d) = %s, want %s", tt.sectors, got, tt.want)
		}
	}
}
