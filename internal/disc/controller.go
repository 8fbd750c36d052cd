package disc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"musicus/internal/logging"
)

// DefaultTOCTimeout bounds the wait for the drive's table of contents.
const DefaultTOCTimeout = 5 * time.Second

// Track is a discovered disc track and the temp file it is ripped to.
type Track struct {
	Number   int
	Name     string
	Duration time.Duration
	Path     string
}

// Options configures a Controller.
type Options struct {
	TempDir    string
	Extension  string
	TOCTimeout time.Duration
	Logger     *slog.Logger
}

// Controller runs one disc through discovery and ripping. A controller is
// single use: once it reaches StateDone or StateFailed a new one is needed.
type Controller struct {
	graph      Graph
	tempDir    string
	extension  string
	tocTimeout time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	state     State
	observers []func(from, to State)
}

// NewController wraps graph. The graph is not touched until Discover.
func NewController(graph Graph, opts Options) *Controller {
	timeout := opts.TOCTimeout
	if timeout <= 0 {
		timeout = DefaultTOCTimeout
	}
	ext := strings.TrimPrefix(strings.TrimSpace(opts.Extension), ".")
	if ext == "" {
		ext = "flac"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		graph:      graph,
		tempDir:    opts.TempDir,
		extension:  ext,
		tocTimeout: timeout,
		logger:     logging.NewComponentLogger(logger, "disc"),
		state:      StateIdle,
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnTransition registers fn to be called after every state change.
func (c *Controller) OnTransition(fn func(from, to State)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

func (c *Controller) transition(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	observers := append([]func(from, to State){}, c.observers...)
	c.mu.Unlock()

	c.logger.Debug("disc state changed",
		logging.String("from", from.String()),
		logging.String(logging.FieldState, to.String()),
	)
	for _, fn := range observers {
		fn(from, to)
	}
}

func (c *Controller) expect(want State) error {
	if got := c.State(); got != want {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, got, want)
	}
	return nil
}

func (c *Controller) fail(err error) error {
	c.transition(StateFailed)
	return err
}

// Discover builds the graph, waits for the table of contents, and prepares
// the file sink. It returns one track per TOC entry with its temp path.
func (c *Controller) Discover(ctx context.Context) ([]Track, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.expect(StateIdle); err != nil {
		return nil, err
	}

	if err := c.graph.Build(ctx); err != nil {
		return nil, c.fail(&PipelineError{Op: "build", Err: err})
	}
	c.transition(StateNegotiating)

	if err := c.graph.SetState(ctx, GraphPaused); err != nil {
		return nil, c.fail(&PipelineError{Op: "pause", Err: err})
	}
	toc, err := c.awaitTOC(ctx)
	if err != nil {
		_ = c.graph.SetState(context.Background(), GraphNull)
		return nil, c.fail(err)
	}
	c.transition(StateTocRead)

	if err := c.graph.AttachFileSink(); err != nil {
		return nil, c.fail(&PipelineError{Op: "attach sink", Err: err})
	}
	if err := c.graph.SetState(ctx, GraphReady); err != nil {
		return nil, c.fail(&PipelineError{Op: "ready", Err: err})
	}

	tracks := make([]Track, 0, len(toc))
	for _, entry := range toc {
		tracks = append(tracks, Track{
			Number:   entry.Number,
			Name:     fmt.Sprintf("Track %d", entry.Number),
			Duration: entry.Duration,
			Path:     filepath.Join(c.tempDir, fmt.Sprintf("track_%02d.%s", entry.Number, c.extension)),
		})
	}
	c.transition(StateReady)
	c.logger.Info("disc table of contents read",
		logging.String(logging.FieldEventType, "toc_read"),
		logging.Int("tracks", len(tracks)),
	)
	return tracks, nil
}

// Rip writes each track to its Path, in order. onTrack is called with the
// index into tracks just before that track starts. The first failure aborts
// the remaining tracks; files already written are left in place.
func (c *Controller) Rip(ctx context.Context, tracks []Track, onTrack func(index int)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.expect(StateReady); err != nil {
		return err
	}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return c.fail(err)
		}
		if err := c.graph.SelectTrack(track.Number); err != nil {
			return c.fail(&PipelineError{Op: "select", Track: track.Number, Err: err})
		}
		if err := c.graph.SetDestination(track.Path); err != nil {
			return c.fail(&PipelineError{Op: "set destination", Track: track.Number, Err: err})
		}
		if onTrack != nil {
			onTrack(i)
		}
		c.transition(StateRipping)
		if err := c.graph.SetState(ctx, GraphPlaying); err != nil {
			return c.fail(&PipelineError{Op: "play", Track: track.Number, Err: err})
		}
		if err := c.awaitEndOfStream(ctx, track.Number); err != nil {
			return c.fail(err)
		}
		if err := c.graph.SetState(ctx, GraphReady); err != nil {
			return c.fail(&PipelineError{Op: "ready", Track: track.Number, Err: err})
		}
		c.transition(StateReady)
		c.logger.Info("track ripped",
			logging.String(logging.FieldEventType, "track_ripped"),
			logging.Int(logging.FieldTrack, track.Number),
			logging.String("path", track.Path),
		)
	}

	c.transition(StateDone)
	return nil
}

// Close releases the graph.
func (c *Controller) Close() error {
	return c.graph.Close()
}

type tocResult struct {
	toc []TOCEntry
	err error
}

// awaitTOC blocks until the graph has settled in the paused state and posted
// its TOC, an error arrives, or the timeout expires.
func (c *Controller) awaitTOC(ctx context.Context) ([]TOCEntry, error) {
	stop := make(chan struct{})
	defer close(stop)

	result := make(chan tocResult, 1)
	go func() {
		var (
			paused bool
			toc    []TOCEntry
			seen   bool
		)
		for {
			select {
			case <-stop:
				return
			case msg, ok := <-c.graph.Bus():
				if !ok {
					result <- tocResult{err: &PipelineError{Op: "negotiate", Err: errors.New("graph bus closed")}}
					return
				}
				switch msg.Kind {
				case MessageError:
					result <- tocResult{err: &PipelineError{Op: "negotiate", Err: msg.Err}}
					return
				case MessageStateChanged:
					paused = paused || msg.State == GraphPaused
				case MessageTOC:
					toc, seen = msg.TOC, true
				}
				if paused && seen {
					result <- tocResult{toc: toc}
					return
				}
			}
		}
	}()

	timer := time.NewTimer(c.tocTimeout)
	defer timer.Stop()
	select {
	case res := <-result:
		return res.toc, res.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// awaitEndOfStream blocks until the selected track finishes or fails.
func (c *Controller) awaitEndOfStream(ctx context.Context, track int) error {
	stop := make(chan struct{})
	defer close(stop)

	result := make(chan error, 1)
	go func() {
		for {
			select {
			case <-stop:
				return
			case msg, ok := <-c.graph.Bus():
				if !ok {
					result <- &PipelineError{Op: "rip", Track: track, Err: errors.New("graph bus closed")}
					return
				}
				switch msg.Kind {
				case MessageEndOfStream:
					result <- nil
					return
				case MessageError:
					result <- &PipelineError{Op: "rip", Track: track, Err: msg.Err}
					return
				}
			}
		}
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
