package disc

import "fmt"

// State is the controller's position in the discovery and rip cycle.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateTocRead
	StateReady
	StateRipping
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateTocRead:
		return "toc_read"
	case StateReady:
		return "ready"
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

// GraphState mirrors the scheduling states of the audio graph.
type GraphState int

const (
	GraphNull GraphState = iota
	GraphReady
	GraphPaused
	GraphPlaying
)

func (s GraphState) String() string {
	switch s {
	case GraphNull:
		return "null"
	case GraphReady:
		return "ready"
	case GraphPaused:
		return "paused"
	case GraphPlaying:
		return "playing"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}
