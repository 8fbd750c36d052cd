package preflight

import (
	"context"

	"musicus/internal/config"
)

// Result reports the outcome of a single preflight check. Optional checks
// never block an import.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes the directory, database, binary, staging and drive checks
// for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDatabase(ctx, cfg),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, status.Result())
	}
	results = append(results, CheckStagingLeftovers(cfg.Paths.StagingDir))
	results = append(results, CheckDrive(cfg.Disc.Device))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
