package disc

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SectorsPerSecond is the audio CD frame rate.
const SectorsPerSecond = 75

// ErrNoAudioTracks reports a TOC without audio tracks.
var ErrNoAudioTracks = errors.New("no audio tracks in table of contents")

var tocLinePattern = regexp.MustCompile(`^\s*(\d+)\.\s+(\d+)\s+\[`)

// SectorsToDuration converts a sector count to whole milliseconds.
func SectorsToDuration(sectors int64) time.Duration {
	return time.Duration(sectors*1000/SectorsPerSecond) * time.Millisecond
}

// ParseTOC parses the table printed by `cdparanoia -Q`:
//
//	track        length               begin        copy pre ch
//	===========================================================
//	  1.    16503 [03:40.03]        0 [00:00.00]    no   no  2
func ParseTOC(output string) ([]TOCEntry, error) {
	var entries []TOCEntry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		m := tocLinePattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("parse track number %q: %w", m[1], err)
		}
		sectors, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse track %d length %q: %w", number, m[2], err)
		}
		entries = append(entries, TOCEntry{Number: number, Duration: SectorsToDuration(sectors)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoAudioTracks
	}
	return entries, nil
}
