package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"musicus/internal/daemon"
	"musicus/internal/disc/disctest"
	"musicus/internal/disc/fingerprint"
	"musicus/internal/importer"
	"musicus/internal/testsupport"
)

func ready(context.Context, string) error { return nil }

func graphSource(t *testing.T, stagingDir string, graphs *[]*disctest.Graph, ms ...uint64) daemon.SourceFactory {
	t.Helper()
	return func(device string) (importer.Source, error) {
		g := disctest.New(ms...)
		*graphs = append(*graphs, g)
		return importer.NewDiscSource(importer.DiscOptions{
			Device:     device,
			StagingDir: stagingDir,
			Extension:  "flac",
			Graph:      g,
		})
	}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, daemon.Options{Catalog: store, WaitReady: ready})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected daemon to report running")
	}
	if _, err := os.Stat(d.Status().LockFilePath); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondWatcherIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, daemon.Options{Catalog: store, WaitReady: ready})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	second, err := daemon.New(cfg, daemon.Options{Catalog: store, WaitReady: ready})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected the second watcher to be refused")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("expected start after release, got %v", err)
	}
	second.Stop()
}

func TestStartSweepsStaleRipDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stale := filepath.Join(cfg.Paths.StagingDir, "disc-crashed")
	fresh := filepath.Join(cfg.Paths.StagingDir, "disc-active")
	for _, dir := range []string{stale, fresh} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	old := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	d, err := daemon.New(cfg, daemon.Options{Catalog: store, WaitReady: ready})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale rip dir removed, stat err %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected active rip dir kept: %v", err)
	}
}

func TestNewRequiresCatalog(t *testing.T) {
	if _, err := daemon.New(testsupport.NewConfig(t), daemon.Options{}); err == nil {
		t.Fatal("expected error without catalog")
	}
}

func TestDetectReportsKnownDisc(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sourceID := fingerprint.Compute([]uint64{5000, 3000})
	brendel := testsupport.Person("Alfred", "Brendel")
	schubert := testsupport.Person("Franz", "Schubert")
	rec := testsupport.Recording("rec-d935", testsupport.Work("d935", schubert, 2), brendel)
	testsupport.MustUpdateMedium(t, store, testsupport.Medium("impromptus", sourceID, rec))

	var graphs []*disctest.Graph
	var notified []daemon.Detection
	d, err := daemon.New(cfg, daemon.Options{
		Catalog:     store,
		WaitReady:   ready,
		NewSource:   graphSource(t, cfg.Paths.StagingDir, &graphs, 5000, 3000),
		OnDetection: func(det daemon.Detection) { notified = append(notified, det) },
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	det, err := d.Detect(context.Background(), "/dev/sr0")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if det.SourceID != sourceID {
		t.Fatalf("source id = %s, want %s", det.SourceID, sourceID)
	}
	if !det.Known() || len(det.Matches) != 1 || det.Matches[0].ID != "impromptus" {
		t.Fatalf("unexpected matches %+v", det.Matches)
	}
	if len(det.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(det.Tracks))
	}
	if len(notified) != 1 {
		t.Fatalf("expected one notification, got %d", len(notified))
	}
	if last := d.Status().LastDetection; last == nil || last.SourceID != sourceID {
		t.Fatalf("unexpected last detection %+v", last)
	}
	if len(graphs) != 1 || len(graphs[0].Played()) != 0 || !graphs[0].Closed() {
		t.Fatal("detection must close the graph without ripping")
	}
	entries, err := os.ReadDir(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("read staging: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected staging to be cleaned, found %d entries", len(entries))
	}
}

func TestDetectUnknownDisc(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	var graphs []*disctest.Graph
	d, err := daemon.New(cfg, daemon.Options{
		Catalog:   store,
		WaitReady: ready,
		NewSource: graphSource(t, filepath.Join(cfg.Paths.StagingDir, "watch"), &graphs, 100, 200, 300),
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	det, err := d.Detect(context.Background(), "/dev/sr0")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if det.Known() {
		t.Fatalf("expected unknown disc, got %+v", det.Matches)
	}
}

func TestDetectPropagatesDriveErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	driveErr := errors.New("tray open")
	var opened bool
	d, err := daemon.New(cfg, daemon.Options{
		Catalog:   store,
		WaitReady: func(context.Context, string) error { return driveErr },
		NewSource: func(string) (importer.Source, error) {
			opened = true
			return nil, errors.New("unexpected")
		},
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if _, err := d.Detect(context.Background(), "/dev/sr0"); !errors.Is(err, driveErr) {
		t.Fatalf("expected drive error, got %v", err)
	}
	if opened {
		t.Fatal("source must not be opened before the drive is ready")
	}
}
