package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"musicus/internal/config"
	"musicus/internal/fileutil"
	"musicus/internal/ids"
	"musicus/internal/library"
	"musicus/internal/logging"
	"musicus/internal/tagging"
)

// Match returns the stored mediums imported from the same source as session.
// Several mediums may share a source ID; the caller decides whether the new
// import is one of them.
func Match(ctx context.Context, catalog library.Catalog, session *Session) ([]library.Medium, error) {
	mediums, err := catalog.GetMediumsBySourceID(ctx, session.SourceID())
	if err != nil {
		return nil, fmt.Errorf("match source %s: %w", session.SourceID(), err)
	}
	return mediums, nil
}

// FinalizeOptions controls how ripped files enter the library.
type FinalizeOptions struct {
	LibraryDir string
	Tag        bool
	Verify     bool
	Logger     *slog.Logger
}

// FinalizeOptionsFromConfig maps the [paths] and [import] settings.
func FinalizeOptionsFromConfig(cfg *config.Config) FinalizeOptions {
	return FinalizeOptions{
		LibraryDir: cfg.Paths.LibraryDir,
		Tag:        cfg.Import.TagFiles,
		Verify:     cfg.Import.VerifyCopies,
	}
}

// Finalize copies the session's files into <library>/<medium id>/, points the
// medium's tracks at them, and stores the medium. The medium's tracks, in
// track set order, correspond one to one with the session's tracks. When the
// medium cannot be stored the copied directory is removed again.
func Finalize(ctx context.Context, catalog library.Catalog, session *Session, medium library.Medium, opts FinalizeOptions) (library.Medium, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	status := session.Status()
	switch status.State {
	case StateDone:
	case StateFailed:
		return medium, fmt.Errorf("%w: %v", ErrSessionFailed, status.Err)
	default:
		return medium, ErrNotRipped
	}

	tracks := session.Tracks()
	if medium.TrackCount() != len(tracks) {
		return medium, fmt.Errorf("%w: medium has %d, import has %d", ErrTrackMismatch, medium.TrackCount(), len(tracks))
	}
	if medium.ID == "" {
		medium.ID = ids.New()
	}
	if medium.DiscID == "" {
		medium.DiscID = session.SourceID()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "importer").With(
		logging.String(logging.FieldSessionID, session.ID()),
		logging.String(logging.FieldMediumID, medium.ID),
	)

	destDir := filepath.Join(opts.LibraryDir, medium.ID)
	if err := os.MkdirAll(opts.LibraryDir, 0o755); err != nil {
		return medium, &IOError{Op: "create library dir", Path: opts.LibraryDir, Err: err}
	}
	if err := os.Mkdir(destDir, 0o755); err != nil {
		return medium, &IOError{Op: "create medium dir", Path: destDir, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(destDir)
		}
	}()

	result := medium
	result.TrackSets = make([]library.TrackSet, len(medium.TrackSets))
	index := 0
	for si, set := range medium.TrackSets {
		out := set
		out.Tracks = make([]library.Track, len(set.Tracks))
		for ti, track := range set.Tracks {
			src := tracks[index]
			index++

			name := fmt.Sprintf("%02d%s", index, strings.ToLower(filepath.Ext(src.Path)))
			dst := filepath.Join(destDir, name)
			if _, err := fileutil.Copy(ctx, src.Path, dst, fileutil.CopyOptions{Verify: opts.Verify}); err != nil {
				return medium, &IOError{Op: "copy", Path: src.Path, Err: err}
			}
			if opts.Tag && strings.EqualFold(filepath.Ext(dst), ".flac") {
				tags := trackTags(result, set.Recording, track, index, len(tracks))
				if err := tagging.WriteFLAC(dst, tags); err != nil {
					return medium, &IOError{Op: "tag", Path: dst, Err: err}
				}
			}

			out.Tracks[ti] = library.Track{
				WorkParts: track.WorkParts,
				Path:      filepath.ToSlash(filepath.Join(medium.ID, name)),
			}
			logger.Debug("track copied into library",
				logging.Int(logging.FieldTrack, index),
				logging.String("path", dst),
			)
		}
		result.TrackSets[si] = out
	}

	if err := catalog.UpdateMedium(ctx, result); err != nil {
		return medium, fmt.Errorf("store medium %s: %w", medium.ID, err)
	}
	committed = true
	logger.Info("medium imported",
		logging.String(logging.FieldEventType, "medium_imported"),
		logging.String(logging.FieldSourceID, result.DiscID),
		logging.Int("tracks", len(tracks)),
	)
	return result, nil
}

// trackTags describes one library file. The title names the work and, when
// the track holds only some parts, those parts.
func trackTags(medium library.Medium, rec library.Recording, track library.Track, number, total int) tagging.Tags {
	work := rec.Work
	title := work.Title
	var parts []string
	for _, idx := range track.WorkParts {
		if idx >= 0 && idx < len(work.Parts) {
			parts = append(parts, work.Parts[idx].Title)
		}
	}
	if len(parts) > 0 {
		title += ": " + strings.Join(parts, " / ")
	}

	performers := make([]string, 0, len(rec.Performances))
	for _, perf := range rec.Performances {
		if name := perf.Performer(); name != "" {
			performers = append(performers, name)
		}
	}
	return tagging.Tags{
		Title:       title,
		Album:       medium.Name,
		Composer:    work.Composer.Name(),
		Performers:  performers,
		TrackNumber: number,
		TrackTotal:  total,
		DiscID:      medium.DiscID,
	}
}
