package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"musicus/internal/config"
	"musicus/internal/disc"
	"musicus/internal/logging"
	"musicus/internal/staging"
)

// DiscOptions configures a DiscSource.
type DiscOptions struct {
	Device     string
	StagingDir string
	Extension  string
	TOCTimeout time.Duration
	Eject      bool

	ReaderBinary  string
	EncoderBinary string

	// Graph defaults to a disc.CommandGraph reading Device with
	// ReaderBinary and EncoderBinary.
	Graph   disc.Graph
	Ejector disc.Ejector
	Logger  *slog.Logger
}

// DiscOptionsFromConfig maps the [disc] and [paths] settings.
func DiscOptionsFromConfig(cfg *config.Config) DiscOptions {
	return DiscOptions{
		Device:     cfg.Disc.Device,
		StagingDir: cfg.Paths.StagingDir,
		Extension:  cfg.Disc.FileExtension,
		TOCTimeout: cfg.TOCTimeoutDuration(),
		Eject:      cfg.Disc.EjectAfterRip,

		ReaderBinary:  cfg.Disc.ReaderBinary,
		EncoderBinary: cfg.Disc.EncoderBinary,
	}
}

// DiscSource rips an audio CD into a private staging directory.
type DiscSource struct {
	controller *disc.Controller
	tempDir    string
	device     string
	eject      bool
	ejector    disc.Ejector
	logger     *slog.Logger
	tracks     []disc.Track
}

// NewDiscSource creates the staging directory and the disc controller.
func NewDiscSource(opts DiscOptions) (*DiscSource, error) {
	graph := opts.Graph
	if graph == nil {
		if opts.ReaderBinary == "" || opts.EncoderBinary == "" {
			return nil, fmt.Errorf("disc source: reader and encoder binaries must be configured")
		}
		graph = disc.NewCommandGraph(opts.Device, opts.ReaderBinary, opts.EncoderBinary)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(opts.StagingDir, 0o755); err != nil {
		return nil, &IOError{Op: "create staging dir", Path: opts.StagingDir, Err: err}
	}
	tempDir, err := os.MkdirTemp(opts.StagingDir, staging.Pattern)
	if err != nil {
		return nil, &IOError{Op: "create temp dir", Path: opts.StagingDir, Err: err}
	}
	ejector := opts.Ejector
	if ejector == nil {
		ejector = disc.NewEjector()
	}
	return &DiscSource{
		controller: disc.NewController(graph, disc.Options{
			TempDir:    tempDir,
			Extension:  opts.Extension,
			TOCTimeout: opts.TOCTimeout,
			Logger:     logger,
		}),
		tempDir: tempDir,
		device:  opts.Device,
		eject:   opts.Eject,
		ejector: ejector,
		logger:  logging.NewComponentLogger(logger, "disc_source"),
	}, nil
}

func (d *DiscSource) Discover(ctx context.Context) ([]Track, error) {
	tracks, err := d.controller.Discover(ctx)
	if err != nil {
		return nil, err
	}
	d.tracks = tracks
	out := make([]Track, len(tracks))
	for i, track := range tracks {
		out[i] = Track{Number: track.Number, Name: track.Name, Duration: track.Duration, Path: track.Path}
	}
	return out, nil
}

func (d *DiscSource) Copy(ctx context.Context, tracks []Track, progress func(index int)) error {
	if len(tracks) != len(d.tracks) {
		return fmt.Errorf("disc source: %d tracks requested, %d discovered", len(tracks), len(d.tracks))
	}
	if err := d.controller.Rip(ctx, d.tracks, progress); err != nil {
		return err
	}
	if d.eject {
		if err := d.ejector.Eject(ctx, d.device); err != nil {
			logging.WarnWithContext(d.logger, "eject failed", "eject_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "disc stays in the drive"),
			)
		}
	}
	return nil
}

// Close releases the drive and removes the staging directory with any ripped
// files left in it.
func (d *DiscSource) Close() error {
	closeErr := d.controller.Close()
	if err := os.RemoveAll(d.tempDir); err != nil {
		return &IOError{Op: "remove temp dir", Path: d.tempDir, Err: err}
	}
	return closeErr
}
