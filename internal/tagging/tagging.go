package tagging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	flac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacvorbis"
)

const vendor = "musicus"

// ErrNoStreamInfo reports a FLAC file without a STREAMINFO block.
var ErrNoStreamInfo = errors.New("flac stream has no STREAMINFO block")

// Tags describes one imported track.
type Tags struct {
	Title       string
	Album       string
	Composer    string
	Performers  []string
	TrackNumber int
	TrackTotal  int
	DiscID      string
}

func (t Tags) comment() (*flacvorbis.MetaDataBlockVorbisComment, error) {
	cmt := flacvorbis.New()
	cmt.Vendor = vendor
	add := func(field, value string) error {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		return cmt.Add(field, value)
	}

	fields := [][2]string{
		{flacvorbis.FIELD_TITLE, t.Title},
		{flacvorbis.FIELD_ALBUM, t.Album},
		{"COMPOSER", t.Composer},
	}
	for _, performer := range t.Performers {
		fields = append(fields, [2]string{flacvorbis.FIELD_PERFORMER, performer})
	}
	if len(t.Performers) > 0 {
		fields = append(fields, [2]string{flacvorbis.FIELD_ARTIST, strings.Join(t.Performers, "; ")})
	}
	if t.TrackNumber > 0 {
		fields = append(fields, [2]string{flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(t.TrackNumber)})
	}
	if t.TrackTotal > 0 {
		fields = append(fields, [2]string{"TRACKTOTAL", strconv.Itoa(t.TrackTotal)})
	}
	fields = append(fields, [2]string{"MUSICUS_DISCID", t.DiscID})

	for _, field := range fields {
		if err := add(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("add %s: %w", field[0], err)
		}
	}
	return cmt, nil
}

// WriteFLAC replaces the Vorbis comments of the FLAC file at path with tags.
// The file is rewritten through a temp file in the same directory and renamed
// over the original, so a failure leaves the original untouched.
func WriteFLAC(path string, tags Tags) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac %s: %w", path, err)
	}

	kept := make([]*flac.MetaDataBlock, 0, len(f.Meta)+1)
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			kept = append(kept, block)
		}
	}
	cmt, err := tags.comment()
	if err != nil {
		return fmt.Errorf("build vorbis comment: %w", err)
	}
	block := cmt.Marshal()
	f.Meta = append(kept, &block)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".*.flac.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := f.Save(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("save flac %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ReadComments returns the Vorbis comments of a FLAC file keyed by upper-case
// field name.
func ReadComments(path string) (map[string][]string, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse flac %s: %w", path, err)
	}
	defer r.Close()
	f, err := flac.ParseMetadata(r)
	if err != nil {
		return nil, fmt.Errorf("parse flac %s: %w", path, err)
	}
	out := make(map[string][]string)
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return nil, fmt.Errorf("parse vorbis comment: %w", err)
		}
		for _, entry := range cmt.Comments {
			key, value, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			key = strings.ToUpper(key)
			out[key] = append(out[key], value)
		}
	}
	return out, nil
}

// ReadTitle returns the embedded title of an audio file. Files without a
// readable title fall back to their base name without extension.
func ReadTitle(path string) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fallback
	}
	if title := strings.TrimSpace(m.Title()); title != "" {
		return title
	}
	return fallback
}

// FLACDuration returns the playing time recorded in the STREAMINFO block.
func FLACDuration(path string) (time.Duration, error) {
	r, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("parse flac %s: %w", path, err)
	}
	defer r.Close()
	f, err := flac.ParseMetadata(r)
	if err != nil {
		return 0, fmt.Errorf("parse flac %s: %w", path, err)
	}
	info, err := f.GetStreamInfo()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoStreamInfo, err)
	}
	if info.SampleRate <= 0 {
		return 0, fmt.Errorf("%s: invalid sample rate %d", path, info.SampleRate)
	}
	ms := info.SampleCount * 1000 / int64(info.SampleRate)
	return time.Duration(ms) * time.Millisecond, nil
}
