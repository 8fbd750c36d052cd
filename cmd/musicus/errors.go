package main

import (
	"context"
	"errors"

	"musicus/internal/disc"
	"musicus/internal/importer"
	"musicus/internal/library"
)

// errorHint suggests a next step for the error kinds users can act on.
func errorHint(err error) string {
	var missing *library.MissingItemError
	var parsing *library.ParsingError
	var pipeline *disc.PipelineError
	var ioErr *importer.IOError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, errNotFound):
		return "list the stored entities with musicus <kind> list"
	case errors.As(err, &missing):
		return "the library references an entity that no longer exists; re-apply it with musicus apply"
	case errors.As(err, &parsing):
		return "the database holds a value musicus did not write; restore it from a backup"
	case library.IsForeignKeyViolation(err):
		return "the entity is still referenced; delete the recordings or mediums that use it first"
	case errors.Is(err, library.ErrInvalidEntity):
		return "every entity and every referenced entity needs an id"
	case errors.Is(err, disc.ErrTimeout):
		return "the drive did not report a table of contents; check that an audio CD is inserted"
	case errors.As(err, &pipeline):
		return "the reader or encoder failed; run musicus doctor and check the disc surface"
	case errors.Is(err, importer.ErrTrackMismatch):
		return "the medium document must list exactly one track per ripped file"
	case errors.Is(err, importer.ErrNoTracks):
		return "no audio tracks were found in the source"
	case errors.As(err, &ioErr):
		return "check that the staging and library directories exist and are writable"
	case errors.Is(err, context.DeadlineExceeded):
		return "the operation timed out"
	default:
		return ""
	}
}

// formatError renders err with its hint for the terminal.
func formatError(err error) string {
	msg := "Error: " + err.Error()
	if hint := errorHint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return msg
}
