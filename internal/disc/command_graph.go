package disc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Executor abstracts command execution for TOC queries.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// commandExecutor executes commands using os/exec. cdparanoia writes its
// report to stderr, so both streams are captured.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// CommandGraph is a Graph built from the cdparanoia reader piped into the flac
// encoder. Before AttachFileSink the decoded audio goes to io.Discard.
type CommandGraph struct {
	device  string
	reader  string
	encoder string
	exec    Executor

	mu          sync.Mutex
	bus         chan Message
	done        chan struct{}
	built       bool
	fileSink    bool
	state       GraphState
	track       int
	destination string
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewCommandGraph constructs a graph reading device with the given binaries.
func NewCommandGraph(device, reader, encoder string) *CommandGraph {
	return NewCommandGraphWithExecutor(device, reader, encoder, commandExecutor{})
}

// NewCommandGraphWithExecutor allows injecting a custom executor for TOC
// queries.
func NewCommandGraphWithExecutor(device, reader, encoder string, exec Executor) *CommandGraph {
	if exec == nil {
		exec = commandExecutor{}
	}
	return &CommandGraph{
		device:  strings.TrimSpace(device),
		reader:  strings.TrimSpace(reader),
		encoder: strings.TrimSpace(encoder),
		exec:    exec,
		bus:     make(chan Message, 16),
		done:    make(chan struct{}),
	}
}

func (g *CommandGraph) Build(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reader == "" {
		return errors.New("disc reader binary not configured")
	}
	if g.encoder == "" {
		return errors.New("encoder binary not configured")
	}
	if g.built {
		return errors.New("graph already built")
	}
	g.built = true
	g.state = GraphNull
	return nil
}

func (g *CommandGraph) Bus() <-chan Message { return g.bus }

func (g *CommandGraph) AttachFileSink() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == GraphPlaying {
		return errors.New("cannot swap sink while playing")
	}
	g.fileSink = true
	return nil
}

func (g *CommandGraph) SelectTrack(number int) error {
	if number <= 0 {
		return fmt.Errorf("invalid track number %d", number)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.track = number
	return nil
}

func (g *CommandGraph) SetDestination(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == GraphPlaying {
		return errors.New("cannot reset sink while playing")
	}
	g.destination = path
	return nil
}

func (g *CommandGraph) SetState(ctx context.Context, state GraphState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.built {
		return errors.New("graph not built")
	}

	switch state {
	case GraphNull, GraphReady:
		if g.cancel != nil {
			g.cancel()
			g.cancel = nil
		}
	case GraphPaused:
		if g.state == GraphNull {
			g.startTOCQuery(ctx)
		}
	case GraphPlaying:
		if g.state == GraphPlaying {
			return nil
		}
		if g.track == 0 {
			return errors.New("no track selected")
		}
		if g.fileSink && g.destination == "" {
			return errors.New("file sink has no destination")
		}
		g.startRip(ctx)
	default:
		return fmt.Errorf("unsupported graph state %s", state)
	}
	g.state = state
	return nil
}

func (g *CommandGraph) post(msg Message) {
	select {
	case g.bus <- msg:
	case <-g.done:
	}
}

// startTOCQuery runs the query on a child context that SetState(Null/Ready)
// and Close cancel, so a drive that never answers cannot outlive the graph.
func (g *CommandGraph) startTOCQuery(ctx context.Context) {
	queryCtx, cancel := context.WithCancel(ctx)
	if g.cancel != nil {
		g.cancel()
	}
	g.cancel = cancel
	device, reader := g.device, g.reader
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()
		args := []string{"-Q"}
		if device != "" {
			args = append([]string{"-d", device}, args...)
		}
		output, err := g.exec.Run(queryCtx, reader, args)
		if err != nil {
			g.post(Message{Kind: MessageError, Err: fmt.Errorf("%s -Q: %w", reader, err)})
			return
		}
		toc, err := ParseTOC(string(output))
		if err != nil {
			g.post(Message{Kind: MessageError, Err: err})
			return
		}
		g.post(Message{Kind: MessageStateChanged, State: GraphPaused})
		g.post(Message{Kind: MessageTOC, TOC: toc})
	}()
}

func (g *CommandGraph) startRip(ctx context.Context) {
	ripCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	track, destination, fileSink := g.track, g.destination, g.fileSink
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()
		if err := g.rip(ripCtx, track, destination, fileSink); err != nil {
			g.post(Message{Kind: MessageError, Track: track, Err: err})
			return
		}
		g.post(Message{Kind: MessageEndOfStream, Track: track})
	}()
}

// rip runs `cdparanoia -w <track> -` and feeds its WAV output to
// `flac -o <destination> -`, or drains it when no file sink is attached.
func (g *CommandGraph) rip(ctx context.Context, track int, destination string, fileSink bool) error {
	args := []string{"-q"}
	if g.device != "" {
		args = append(args, "-d", g.device)
	}
	args = append(args, "-w", strconv.Itoa(track), "-")
	reader := exec.CommandContext(ctx, g.reader, args...) //nolint:gosec
	var readerErr strings.Builder
	reader.Stderr = &readerErr

	stdout, err := reader.StdoutPipe()
	if err != nil {
		return err
	}

	if !fileSink {
		if err := reader.Start(); err != nil {
			return fmt.Errorf("start %s: %w", g.reader, err)
		}
		_, copyErr := io.Copy(io.Discard, stdout)
		if err := reader.Wait(); err != nil {
			return commandError(g.reader, err, readerErr.String())
		}
		return copyErr
	}

	encoder := exec.CommandContext(ctx, g.encoder, "-s", "-f", "-o", destination, "-") //nolint:gosec
	encoder.Stdin = stdout
	var encoderErr strings.Builder
	encoder.Stderr = &encoderErr

	if err := reader.Start(); err != nil {
		return fmt.Errorf("start %s: %w", g.reader, err)
	}
	if err := encoder.Start(); err != nil {
		_ = reader.Process.Kill()
		_ = reader.Wait()
		return fmt.Errorf("start %s: %w", g.encoder, err)
	}
	encodeErr := encoder.Wait()
	readErr := reader.Wait()
	if readErr != nil {
		return commandError(g.reader, readErr, readerErr.String())
	}
	if encodeErr != nil {
		return commandError(g.encoder, encodeErr, encoderErr.String())
	}
	return nil
}

func commandError(binary string, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%s: %w", binary, err)
	}
	if idx := strings.LastIndex(stderr, "\n"); idx >= 0 {
		stderr = strings.TrimSpace(stderr[idx+1:])
	}
	return fmt.Errorf("%s: %s: %w", binary, stderr, err)
}

// Close stops any running command and waits for it to exit.
func (g *CommandGraph) Close() error {
	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	select {
	case <-g.done:
	default:
		close(g.done)
	}
	g.state = GraphNull
	g.mu.Unlock()
	g.wg.Wait()
	return nil
}
