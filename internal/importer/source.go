package importer

import (
	"context"
	"time"
)

// Track is one importable track. Number is its 1-based position on the
// source.
type Track struct {
	Number   int
	Name     string
	Duration time.Duration
	// Path is where the track's file is, or will be once copied.
	Path string
}

// Source produces tracks for a session. Discover is called once; Copy makes
// every track's Path exist and calls progress with the index of the track it
// starts on.
type Source interface {
	Discover(ctx context.Context) ([]Track, error)
	Copy(ctx context.Context, tracks []Track, progress func(index int)) error
}

// Closer is implemented by sources holding resources beyond the session.
type Closer interface {
	Close() error
}
