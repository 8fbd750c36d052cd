package disc

import (
	"errors"
	"fmt"
)

// ErrTimeout reports that the drive did not deliver a table of contents in
// time, which usually means no disc is loaded or the drive is busy.
var ErrTimeout = errors.New("timed out waiting for disc table of contents")

// ErrInvalidState reports a controller call made from the wrong state.
var ErrInvalidState = errors.New("disc controller in wrong state")

// PipelineError wraps a failure reported by the audio graph.
type PipelineError struct {
	Op    string
	Track int
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Track > 0 {
		return fmt.Sprintf("disc pipeline %s track %d: %v", e.Op, e.Track, e.Err)
	}
	return fmt.Sprintf("disc pipeline %s: %v", e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
