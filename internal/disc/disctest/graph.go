// Package disctest provides a scripted disc.Graph for tests.
package disctest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"musicus/internal/disc"
)

// Graph replays a fixed table of contents and writes a file per ripped track.
// It never touches hardware.
type Graph struct {
	// Durations are reported as tracks 1..n.
	Durations []time.Duration
	// FailTrack, when non-zero, makes that track post an error instead of
	// end-of-stream.
	FailTrack int
	// FailErr is posted for FailTrack; a generic read error when nil.
	FailErr error
	// BuildErr is returned from Build.
	BuildErr error
	// WithholdTOC keeps the graph silent after pausing, so discovery times out.
	WithholdTOC bool
	// WriteTrack writes the ripped file; a small placeholder when nil.
	WriteTrack func(path string, duration time.Duration) error

	mu          sync.Mutex
	bus         chan disc.Message
	state       disc.GraphState
	fileSink    bool
	track       int
	destination string
	played      []int
	closed      bool
}

// New returns a graph reporting the given track durations in milliseconds.
func New(durationsMS ...uint64) *Graph {
	durations := make([]time.Duration, len(durationsMS))
	for i, ms := range durationsMS {
		durations[i] = time.Duration(ms) * time.Millisecond
	}
	return &Graph{Durations: durations}
}

func (g *Graph) Build(context.Context) error {
	if g.BuildErr != nil {
		return g.BuildErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bus = make(chan disc.Message, 2*len(g.Durations)+4)
	return nil
}

func (g *Graph) Bus() <-chan disc.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bus
}

func (g *Graph) SetState(_ context.Context, state disc.GraphState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bus == nil {
		return errors.New("graph not built")
	}
	prev := g.state
	g.state = state

	switch {
	case state == disc.GraphPaused && prev == disc.GraphNull:
		if g.WithholdTOC {
			return nil
		}
		toc := make([]disc.TOCEntry, len(g.Durations))
		for i, d := range g.Durations {
			toc[i] = disc.TOCEntry{Number: i + 1, Duration: d}
		}
		g.bus <- disc.Message{Kind: disc.MessageStateChanged, State: disc.GraphPaused}
		g.bus <- disc.Message{Kind: disc.MessageTOC, TOC: toc}
	case state == disc.GraphPlaying:
		g.played = append(g.played, g.track)
		g.bus <- g.play()
	}
	return nil
}

func (g *Graph) play() disc.Message {
	if g.track == g.FailTrack {
		err := g.FailErr
		if err == nil {
			err = fmt.Errorf("read error on track %d", g.track)
		}
		return disc.Message{Kind: disc.MessageError, Track: g.track, Err: err}
	}
	if !g.fileSink {
		return disc.Message{Kind: disc.MessageEndOfStream, Track: g.track}
	}
	duration := time.Duration(0)
	if g.track >= 1 && g.track <= len(g.Durations) {
		duration = g.Durations[g.track-1]
	}
	write := g.WriteTrack
	if write == nil {
		write = func(path string, _ time.Duration) error {
			return os.WriteFile(path, []byte(fmt.Sprintf("track %d\n", g.track)), 0o644)
		}
	}
	if err := write(g.destination, duration); err != nil {
		return disc.Message{Kind: disc.MessageError, Track: g.track, Err: err}
	}
	return disc.Message{Kind: disc.MessageEndOfStream, Track: g.track}
}

func (g *Graph) AttachFileSink() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fileSink = true
	return nil
}

func (g *Graph) SelectTrack(number int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if number < 1 || number > len(g.Durations) {
		return fmt.Errorf("no track %d", number)
	}
	g.track = number
	return nil
}

func (g *Graph) SetDestination(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == disc.GraphPlaying {
		return errors.New("cannot reset sink while playing")
	}
	g.destination = path
	return nil
}

func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// Played returns the track numbers that were started, in order.
func (g *Graph) Played() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.played...)
}

// Closed reports whether Close was called.
func (g *Graph) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

var _ disc.Graph = (*Graph)(nil)
