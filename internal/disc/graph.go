package disc

import (
	"context"
	"time"
)

// MessageKind classifies messages posted on a graph's bus.
type MessageKind int

const (
	// MessageStateChanged reports that the graph settled in Message.State.
	MessageStateChanged MessageKind = iota
	// MessageTOC carries the disc's table of contents.
	MessageTOC
	// MessageEndOfStream reports that the selected track was fully written.
	MessageEndOfStream
	// MessageError reports a hardware or codec failure.
	MessageError
)

// TOCEntry is one audio track as reported by the drive.
type TOCEntry struct {
	Number   int
	Duration time.Duration
}

// Message is an asynchronous notification from the graph.
type Message struct {
	Kind  MessageKind
	State GraphState
	TOC   []TOCEntry
	Track int
	Err   error
}

// Graph is the audio pipeline the controller drives: drive source, buffer,
// encoder, and a sink that is either discarding or writing to a file.
//
// Build wires the pipeline with the discard sink. Moving a freshly built graph
// to GraphPaused makes the source post the TOC. AttachFileSink swaps the sink
// once; SetDestination is only valid while the graph is not playing.
type Graph interface {
	Build(ctx context.Context) error
	SetState(ctx context.Context, state GraphState) error
	Bus() <-chan Message
	AttachFileSink() error
	SelectTrack(number int) error
	SetDestination(path string) error
	Close() error
}
