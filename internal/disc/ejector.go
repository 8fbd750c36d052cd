package disc

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Ejector releases a disc once it has been ripped.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

type commandEjector struct {
	binary string
}

// NewEjector creates an ejector that shells out to the eject utility.
func NewEjector() Ejector {
	return commandEjector{binary: "eject"}
}

func (e commandEjector) Eject(ctx context.Context, device string) error {
	args := []string{}
	if device = strings.TrimSpace(device); device != "" {
		args = append(args, device)
	}
	cmd := exec.CommandContext(ctx, e.binary, args...) //nolint:gosec
	if out, err := cmd.CombinedOutput(); err != nil {
		return commandError(e.binary, fmt.Errorf("eject %s: %w", device, err), string(out))
	}
	return nil
}
