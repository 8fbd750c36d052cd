package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRipped reports a Finalize call before the session finished copying.
	ErrNotRipped = errors.New("import session has not finished ripping")
	// ErrSessionFailed reports a Finalize call on a failed session.
	ErrSessionFailed = errors.New("import session failed")
	// ErrTrackMismatch reports a medium whose track count differs from the
	// session's.
	ErrTrackMismatch = errors.New("medium track count does not match imported tracks")
	// ErrNoTracks reports a source without importable tracks.
	ErrNoTracks = errors.New("no tracks found")
)

// IOError reports a filesystem failure while staging or copying files.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err carries an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}
