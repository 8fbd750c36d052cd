package importer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"musicus/internal/config"
	"musicus/internal/disc"
	"musicus/internal/disc/disctest"
	"musicus/internal/disc/fingerprint"
	"musicus/internal/importer"
	"musicus/internal/library"
	"musicus/internal/staging"
	"musicus/internal/tagging"
	"musicus/internal/testsupport"
)

func flacWriter(path string, d time.Duration) error {
	return os.WriteFile(path, testsupport.FLACBytes(uint64(d.Milliseconds())), 0o644)
}

func newDiscSession(t *testing.T, cfg *config.Config, graph disc.Graph) *importer.Session {
	t.Helper()
	opts := importer.DiscOptionsFromConfig(cfg)
	opts.Graph = graph
	opts.TOCTimeout = time.Second
	source, err := importer.NewDiscSource(opts)
	if err != nil {
		t.Fatalf("NewDiscSource: %v", err)
	}
	session, err := importer.NewSession(context.Background(), source, nil)
	if err != nil {
		_ = source.Close()
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func waitDone(t *testing.T, session *importer.Session) importer.Status {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := session.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return status
}

func TestImportDiscEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	graph := disctest.New(5000, 3000)
	graph.WriteTrack = flacWriter
	session := newDiscSession(t, cfg, graph)

	if session.SourceID() != fingerprint.Compute([]uint64{5000, 3000}) {
		t.Fatalf("unexpected source id %s", session.SourceID())
	}
	if session.SourceID() != "rA2ahOGHrxgmd9GP5fguyNdIuAiv-RcdcBW7cSNX474" {
		t.Fatalf("source id drifted: %s", session.SourceID())
	}
	tracks := session.Tracks()
	if len(tracks) != 2 || tracks[0].Name != "Track 1" || tracks[1].Name != "Track 2" {
		t.Fatalf("unexpected tracks %+v", tracks)
	}
	if tracks[0].Number != 1 || tracks[1].Number != 2 {
		t.Fatalf("expected track numbers 1 and 2, got %+v", tracks)
	}
	if tracks[0].Duration != 5*time.Second || tracks[1].Duration != 3*time.Second {
		t.Fatalf("unexpected durations %+v", tracks)
	}
	if got := session.Status(); got.State != importer.StateWaiting {
		t.Fatalf("expected waiting, got %s", got.State)
	}

	schubert := testsupport.Person("Franz", "Schubert")
	previous := testsupport.Medium("previous", session.SourceID(),
		testsupport.Recording("rec-old", testsupport.Work("d899", schubert, 2)))
	testsupport.MustUpdateMedium(t, store, previous)

	matches, err := importer.Match(ctx, store, session)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "previous" {
		t.Fatalf("expected previous medium to match, got %+v", matches)
	}

	session.Copy(ctx)
	if status := waitDone(t, session); status.State != importer.StateDone {
		t.Fatalf("expected done, got %s (%v)", status.State, status.Err)
	}

	pianist := testsupport.Person("Alfred", "Brendel")
	fresh := testsupport.Medium("fresh", "",
		testsupport.Recording("rec-new", testsupport.Work("d935", schubert, 2), pianist))
	stored, err := importer.Finalize(ctx, store, session, fresh, importer.FinalizeOptionsFromConfig(cfg))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if stored.DiscID != session.SourceID() {
		t.Fatalf("expected discid to default to source id, got %q", stored.DiscID)
	}
	if got := stored.TrackSets[0].Tracks[1].Path; got != "fresh/02.flac" {
		t.Fatalf("unexpected library path %q", got)
	}

	mediums, err := store.GetMediumsBySourceID(ctx, session.SourceID())
	if err != nil {
		t.Fatalf("GetMediumsBySourceID: %v", err)
	}
	found := false
	for _, m := range mediums {
		if m.ID == "fresh" {
			found = true
		}
	}
	if len(mediums) != 2 || !found {
		t.Fatalf("expected previous and fresh mediums, got %+v", mediums)
	}

	libraryFile := filepath.Join(cfg.Paths.LibraryDir, "fresh", "01.flac")
	comments, err := tagging.ReadComments(libraryFile)
	if err != nil {
		t.Fatalf("ReadComments: %v", err)
	}
	if got := comments["TITLE"]; len(got) != 1 || got[0] != "Work d935: Part 1" {
		t.Fatalf("unexpected title tag %v", got)
	}
	if got := comments["PERFORMER"]; len(got) != 1 || got[0] != "Alfred Brendel" {
		t.Fatalf("unexpected performer tag %v", got)
	}
	if d, err := tagging.FLACDuration(libraryFile); err != nil || d != 5*time.Second {
		t.Fatalf("expected 5s library file, got %s, %v", d, err)
	}
}

func TestImportFailureSkipsRemainingTracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	graph := disctest.New(100, 200, 300)
	graph.FailTrack = 2
	session := newDiscSession(t, cfg, graph)

	session.Copy(context.Background())
	status := waitDone(t, session)
	if status.State != importer.StateFailed {
		t.Fatalf("expected failed, got %s", status.State)
	}
	var pipelineErr *disc.PipelineError
	if !errors.As(status.Err, &pipelineErr) || pipelineErr.Track != 2 {
		t.Fatalf("expected pipeline error on track 2, got %v", status.Err)
	}
	if got := graph.Played(); len(got) != 2 {
		t.Fatalf("expected track 3 never to start, played %v", got)
	}

	m := testsupport.Medium("m", "", testsupport.Recording("r", testsupport.Work("w", testsupport.Person("A", "B"), 3)))
	if _, err := importer.Finalize(context.Background(), store, session, m, importer.FinalizeOptionsFromConfig(cfg)); !errors.Is(err, importer.ErrSessionFailed) {
		t.Fatalf("expected ErrSessionFailed, got %v", err)
	}
}

func TestCopyIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	graph := disctest.New(100, 200)
	session := newDiscSession(t, cfg, graph)

	session.Copy(context.Background())
	session.Copy(context.Background())
	waitDone(t, session)
	session.Copy(context.Background())

	if got := graph.Played(); len(got) != 2 {
		t.Fatalf("expected a single rip of 2 tracks, played %v", got)
	}
}

func TestStatesDeliversLatest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	session := newDiscSession(t, cfg, disctest.New(100, 200, 300))

	if got := <-session.States(); got.State != importer.StateWaiting {
		t.Fatalf("expected waiting first, got %s", got.State)
	}
	session.Copy(context.Background())
	waitDone(t, session)

	select {
	case got := <-session.States():
		if got.State != importer.StateDone {
			t.Fatalf("expected latest state done, got %s", got.State)
		}
	default:
		t.Fatal("expected a pending state")
	}
	select {
	case got := <-session.States():
		t.Fatalf("expected a single buffered state, got another: %+v", got)
	default:
	}
}

func TestDiscOptionsFromConfigLeavesGraphToSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := importer.DiscOptionsFromConfig(cfg)
	if opts.Graph != nil {
		t.Fatal("expected no graph until the source is built")
	}
	if opts.ReaderBinary != cfg.Disc.ReaderBinary || opts.EncoderBinary != cfg.Disc.EncoderBinary {
		t.Fatalf("binaries not carried: %+v", opts)
	}

	opts.ReaderBinary = ""
	if _, err := importer.NewDiscSource(opts); err == nil {
		t.Fatal("expected error without a graph or reader binary")
	}
}

type unnumberedSource struct{}

func (unnumberedSource) Discover(context.Context) ([]importer.Track, error) {
	return []importer.Track{{Name: "a", Duration: time.Second}, {Name: "b", Duration: 2 * time.Second}}, nil
}

func (unnumberedSource) Copy(context.Context, []importer.Track, func(int)) error { return nil }

func TestSessionNumbersUnnumberedTracks(t *testing.T) {
	session, err := importer.NewSession(context.Background(), unnumberedSource{}, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()
	tracks := session.Tracks()
	if tracks[0].Number != 1 || tracks[1].Number != 2 {
		t.Fatalf("expected positions as numbers, got %+v", tracks)
	}
}

func TestDiscoveryTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	graph := disctest.New(100)
	graph.WithholdTOC = true
	opts := importer.DiscOptionsFromConfig(cfg)
	opts.Graph = graph
	opts.TOCTimeout = 20 * time.Millisecond
	source, err := importer.NewDiscSource(opts)
	if err != nil {
		t.Fatalf("NewDiscSource: %v", err)
	}
	defer source.Close()

	if _, err := importer.NewSession(context.Background(), source, nil); !errors.Is(err, disc.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestDiscSourceCloseRemovesStaging(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	session := newDiscSession(t, cfg, disctest.New(100))
	session.Copy(context.Background())
	waitDone(t, session)

	dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
	if err != nil || len(dirs) != 1 {
		t.Fatalf("expected one rip dir while session is open, got %v (%v)", dirs, err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dirs[0].Path); !os.IsNotExist(err) {
		t.Fatalf("expected rip dir to be removed, got %v", err)
	}
}

type panicSource struct{}

func (panicSource) Discover(context.Context) ([]importer.Track, error) {
	return []importer.Track{{Name: "Track 1", Duration: time.Second}}, nil
}

func (panicSource) Copy(context.Context, []importer.Track, func(int)) error {
	panic("drive exploded")
}

func TestWorkerPanicFailsSession(t *testing.T) {
	session, err := importer.NewSession(context.Background(), panicSource{}, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	session.Copy(context.Background())
	status := waitDone(t, session)
	if status.State != importer.StateFailed || !errors.Is(status.Err, importer.ErrWorkerPanic) {
		t.Fatalf("expected panic to fail the session, got %+v", status)
	}
}

func TestWaitBeforeCopy(t *testing.T) {
	session, err := importer.NewSession(context.Background(), panicSource{}, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, err := session.Wait(context.Background()); !errors.Is(err, importer.ErrNotRipped) {
		t.Fatalf("expected ErrNotRipped, got %v", err)
	}
}

func TestFinalizePreconditions(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	session := newDiscSession(t, cfg, disctest.New(100, 200))
	opts := importer.FinalizeOptionsFromConfig(cfg)
	work := testsupport.Work("w", testsupport.Person("A", "B"), 2)
	medium := testsupport.Medium("m", "", testsupport.Recording("r", work))

	if _, err := importer.Finalize(ctx, store, session, medium, opts); !errors.Is(err, importer.ErrNotRipped) {
		t.Fatalf("expected ErrNotRipped, got %v", err)
	}
	session.Copy(ctx)
	waitDone(t, session)

	short := testsupport.Medium("m", "", testsupport.Recording("r", testsupport.Work("w", work.Composer, 1)))
	if _, err := importer.Finalize(ctx, store, session, short, opts); !errors.Is(err, importer.ErrTrackMismatch) {
		t.Fatalf("expected ErrTrackMismatch, got %v", err)
	}
}

func TestFinalizeRemovesFilesWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	session := newDiscSession(t, cfg, disctest.New(100))
	session.Copy(ctx)
	waitDone(t, session)

	restore := library.SetBeforeOwnedInsertForTests(func(kind library.Kind, _ string) error {
		if kind == library.KindMedium {
			return errors.New("disk full")
		}
		return nil
	})
	defer restore()

	medium := testsupport.Medium("doomed", "", testsupport.Recording("r", testsupport.Work("w", testsupport.Person("A", "B"), 0)))
	opts := importer.FinalizeOptionsFromConfig(cfg)
	opts.Tag = false
	if _, err := importer.Finalize(ctx, store, session, medium, opts); err == nil {
		t.Fatal("expected store failure")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.LibraryDir, "doomed")); !os.IsNotExist(err) {
		t.Fatalf("expected copied files to be removed, got %v", err)
	}
	if m, _ := store.GetMedium(ctx, "doomed"); m != nil {
		t.Fatal("expected no medium after failed finalize")
	}
}

func TestFolderImport(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()
	first := filepath.Join(dir, "01.flac")
	testsupport.WriteFLAC(t, first, 5000)
	if err := tagging.WriteFLAC(first, tagging.Tags{Title: "Allegro"}); err != nil {
		t.Fatalf("tag fixture: %v", err)
	}
	testsupport.WriteFLAC(t, filepath.Join(dir, "02 Adagio.FLAC"), 3000)
	testsupport.WriteFile(t, filepath.Join(dir, "cover.jpg"), 16)

	session, err := importer.NewSession(ctx, importer.NewFolderSource(dir), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if session.SourceID() != fingerprint.Compute([]uint64{5000, 3000}) {
		t.Fatalf("unexpected source id %s", session.SourceID())
	}
	tracks := session.Tracks()
	if len(tracks) != 2 || tracks[0].Name != "Allegro" || tracks[1].Name != "02 Adagio" {
		t.Fatalf("unexpected tracks %+v", tracks)
	}

	session.Copy(ctx)
	if status := waitDone(t, session); status.State != importer.StateDone {
		t.Fatalf("expected done, got %+v", status)
	}
	medium := testsupport.Medium("folder", "", testsupport.Recording("r", testsupport.Work("w", testsupport.Person("A", "B"), 2)))
	if _, err := importer.Finalize(ctx, store, session, medium, importer.FinalizeOptionsFromConfig(cfg)); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := os.Stat(first); err != nil {
		t.Fatalf("expected folder source files to stay in place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.LibraryDir, "folder", "02.flac")); err != nil {
		t.Fatalf("expected lowercase library copy: %v", err)
	}
}

func TestFolderImportWithoutTracks(t *testing.T) {
	if _, err := importer.NewSession(context.Background(), importer.NewFolderSource(t.TempDir()), nil); !errors.Is(err, importer.ErrNoTracks) {
		t.Fatalf("expected ErrNoTracks, got %v", err)
	}
	_, err := importer.NewSession(context.Background(), importer.NewFolderSource(filepath.Join(t.TempDir(), "missing")), nil)
	if !importer.IsIOError(err) {
		t.Fatalf("expected IOError, got %v", err)
	}
}
