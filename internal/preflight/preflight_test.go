package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"musicus/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryAccess_Empty(t *testing.T) {
	if result := CheckDirectoryAccess("test", " "); result.Passed || result.Detail != "not configured" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary", Description: "needed"},
		{Name: "Blank", Command: "  "},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if got := results[1].Result().Detail; !strings.Contains(got, "needed") {
		t.Fatalf("expected description in result detail, got %q", got)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestCheckSystemDepsEjectOptionalUnlessConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Disc.EjectAfterRip = false
	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0].Optional || statuses[1].Optional {
		t.Fatal("reader and encoder must be required")
	}
	if !statuses[2].Optional {
		t.Fatal("eject should be optional when not ejecting after rips")
	}

	cfg.Disc.EjectAfterRip = true
	if CheckSystemDeps(cfg)[2].Optional {
		t.Fatal("eject should be required when ejecting after rips")
	}
}

func TestCheckDatabaseCreatesStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckDatabase(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected database check to pass, got %s", result.Detail)
	}
	if _, err := os.Stat(cfg.Paths.DatabasePath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestCheckDriveMissingDeviceIsOptional(t *testing.T) {
	result := CheckDrive(filepath.Join(t.TempDir(), "sr9"))
	if result.Passed || !result.Optional {
		t.Fatalf("expected optional failure, got %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_StubbedConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithDevice(filepath.Join(t.TempDir(), "sr9")))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, want := range []string{"Library directory", "Staging directory", "Log directory", "Library database", "Audio reader", "Audio encoder", "eject", "Staging leftovers", "Optical drive"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("missing check %q in %v", want, results)
		}
	}
	for _, r := range Failed(results) {
		if r.Name != "eject" {
			t.Fatalf("unexpected required failure %+v", r)
		}
	}
}

func TestCheckStagingLeftovers(t *testing.T) {
	root := t.TempDir()
	if r := CheckStagingLeftovers(root); !r.Passed || !r.Optional {
		t.Fatalf("expected empty staging to pass, got %+v", r)
	}
	if err := os.MkdirAll(filepath.Join(root, "disc-1234"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	r := CheckStagingLeftovers(root)
	if r.Passed || !r.Optional {
		t.Fatalf("expected optional warning, got %+v", r)
	}
	if !strings.Contains(r.Detail, "1 interrupted rip") {
		t.Fatalf("unexpected detail %q", r.Detail)
	}
}

func TestFailedSkipsOptional(t *testing.T) {
	failed := Failed([]Result{
		{Name: "a", Passed: true},
		{Name: "b"},
		{Name: "c", Optional: true},
	})
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failed set %v", failed)
	}
}
