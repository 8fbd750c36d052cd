package preflight

import (
	"fmt"
	"os/exec"
	"strings"

	"musicus/internal/config"
)

// Requirement describes an external program musicus runs.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement was found on PATH.
type Status struct {
	Requirement
	Path      string
	Available bool
	Detail    string
}

// Result converts the status into a printable check result.
func (s Status) Result() Result {
	r := Result{Name: s.Name, Passed: s.Available, Optional: s.Optional}
	switch {
	case s.Available:
		r.Detail = s.Path
	case s.Description != "":
		r.Detail = fmt.Sprintf("%s (%s)", s.Detail, s.Description)
	default:
		r.Detail = s.Detail
	}
	return r
}

// CheckBinaries resolves each requirement with exec.LookPath.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckSystemDeps lists the programs a disc import shells out to.
func CheckSystemDeps(cfg *config.Config) []Status {
	requirements := []Requirement{
		{
			Name:        "Audio reader",
			Command:     cfg.Disc.ReaderBinary,
			Description: "required for reading the disc table of contents and ripping",
		},
		{
			Name:        "Audio encoder",
			Command:     cfg.Disc.EncoderBinary,
			Description: "required for encoding ripped tracks",
		},
		{
			Name:        "eject",
			Command:     "eject",
			Description: "opens the tray after a rip",
			Optional:    !cfg.Disc.EjectAfterRip,
		},
	}
	return CheckBinaries(requirements)
}
