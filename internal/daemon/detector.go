package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"musicus/internal/disc"
	"musicus/internal/importer"
	"musicus/internal/library"
	"musicus/internal/logging"
)

// SourceFactory opens an import source for the drive at device.
type SourceFactory func(device string) (importer.Source, error)

// Detection is the outcome of identifying one inserted disc.
type Detection struct {
	Device     string
	SourceID   string
	Tracks     []importer.Track
	Matches    []library.Medium
	DetectedAt time.Time
}

// Known reports whether the disc was imported before.
func (d Detection) Known() bool { return len(d.Matches) > 0 }

type detector struct {
	catalog   library.Catalog
	logger    *slog.Logger
	newSource SourceFactory
	waitReady func(ctx context.Context, device string) error
	now       func() time.Time
	busy      atomic.Bool
}

func defaultWaitReady(ctx context.Context, device string) error {
	_, err := disc.WaitForReady(ctx, device, 30, time.Second)
	return err
}

// Detect waits for the drive, reads the table of contents and looks up
// mediums with the same source ID. The staging directory created for the
// session is removed before returning.
func (d *detector) Detect(ctx context.Context, device string) (*Detection, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("detect %s: detection already in progress", device)
	}
	defer d.busy.Store(false)

	if d.waitReady != nil {
		if err := d.waitReady(ctx, device); err != nil {
			return nil, fmt.Errorf("wait for %s: %w", device, err)
		}
	}

	source, err := d.newSource(device)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", device, err)
	}
	session, err := importer.NewSession(ctx, source, d.logger)
	if err != nil {
		if closer, ok := source.(importer.Closer); ok {
			_ = closer.Close()
		}
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logging.WarnWithContext(d.logger, "failed to release disc session", "session_close_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "rip directory left behind; run musicus staging clean"),
			)
		}
	}()

	matches, err := importer.Match(ctx, d.catalog, session)
	if err != nil {
		return nil, err
	}

	detection := &Detection{
		Device:     device,
		SourceID:   session.SourceID(),
		Tracks:     session.Tracks(),
		Matches:    matches,
		DetectedAt: d.now(),
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "disc_identified"),
		logging.String("device", device),
		logging.String(logging.FieldSourceID, detection.SourceID),
		logging.Int("tracks", len(detection.Tracks)),
		logging.Int("matches", len(matches)),
	}
	if detection.Known() {
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		attrs = append(attrs, logging.Strings("medium_ids", ids))
	}
	d.logger.Info("disc identified", logging.Args(attrs...)...)
	return detection, nil
}
