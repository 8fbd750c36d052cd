package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/panics"

	"musicus/internal/disc/fingerprint"
	"musicus/internal/ids"
	"musicus/internal/logging"
)

// State is the coarse progress of a session.
type State int

const (
	StateWaiting State = iota
	StateRipping
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateRipping:
		return "ripping"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Status is a state change notification. Track is the index of the track
// being copied while ripping and -1 otherwise. Err is set when failed.
type Status struct {
	State State
	Track int
	Err   error
}

// ErrWorkerPanic wraps a panic raised while copying tracks.
var ErrWorkerPanic = errors.New("import worker panicked")

// Session imports the tracks of one source.
type Session struct {
	id       string
	source   Source
	sourceID string
	tracks   []Track
	logger   *slog.Logger

	mu      sync.Mutex
	status  Status
	started bool
	done    chan struct{}

	sendMu sync.Mutex
	states chan Status
}

// NewSession discovers the tracks of source and returns a waiting session.
func NewSession(ctx context.Context, source Source, logger *slog.Logger) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	tracks, err := source.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	durations := make([]uint64, len(tracks))
	for i, track := range tracks {
		if track.Number == 0 {
			tracks[i].Number = i + 1
		}
		durations[i] = uint64(track.Duration.Milliseconds())
	}

	id := ids.New()
	sourceID := fingerprint.Compute(durations)
	s := &Session{
		id:       id,
		source:   source,
		sourceID: sourceID,
		tracks:   tracks,
		logger: logging.NewComponentLogger(logger, "importer").With(
			logging.String(logging.FieldSessionID, id),
			logging.String(logging.FieldSourceID, sourceID),
		),
		done:   make(chan struct{}),
		states: make(chan Status, 1),
	}
	s.publish(Status{State: StateWaiting, Track: -1})
	s.logger.Info("import session ready",
		logging.String(logging.FieldEventType, "session_ready"),
		logging.Int("tracks", len(tracks)),
	)
	return s, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// SourceID is the fingerprint of the source's track durations.
func (s *Session) SourceID() string { return s.sourceID }

// Tracks returns the discovered tracks.
func (s *Session) Tracks() []Track {
	return append([]Track(nil), s.tracks...)
}

// States delivers state changes. The channel holds one value and a newer
// status replaces an unread one, so readers always see the latest state but
// may miss intermediate ones.
func (s *Session) States() <-chan Status { return s.states }

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Copy starts copying the tracks on a background worker. Only the first call
// starts work; later calls are no-ops.
func (s *Session) Copy(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	s.publish(Status{State: StateRipping, Track: -1})

	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = s.source.Copy(ctx, s.Tracks(), func(index int) {
			s.publish(Status{State: StateRipping, Track: index})
		})
	})
	if recovered := catcher.Recovered(); recovered != nil {
		err = fmt.Errorf("%w: %v", ErrWorkerPanic, recovered.AsError())
	}

	if err != nil {
		logging.ErrorWithContext(s.logger, "import failed", "import_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the drive and disc surface, then start a new import"),
		)
		s.publish(Status{State: StateFailed, Track: -1, Err: err})
		return
	}
	s.logger.Info("import copied all tracks", logging.String(logging.FieldEventType, "import_copied"))
	s.publish(Status{State: StateDone, Track: -1})
}

func (s *Session) publish(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	for {
		select {
		case s.states <- status:
			return
		default:
		}
		select {
		case <-s.states:
		default:
		}
	}
}

// Wait blocks until the worker finishes or ctx is done, and returns the final
// status. It returns ErrNotRipped when Copy was never called.
func (s *Session) Wait(ctx context.Context) (Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return s.Status(), ErrNotRipped
	}
	select {
	case <-s.done:
		return s.Status(), nil
	case <-ctx.Done():
		return s.Status(), ctx.Err()
	}
}

// Close releases the source. Closing while the worker runs waits for it.
func (s *Session) Close() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
	if closer, ok := s.source.(Closer); ok {
		return closer.Close()
	}
	return nil
}
