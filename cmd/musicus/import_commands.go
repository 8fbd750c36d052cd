package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"musicus/internal/config"
	"musicus/internal/disc"
	"musicus/internal/importer"
	"musicus/internal/library"
	"musicus/internal/logging"
)

// discGraph replaces the cdparanoia and flac pipeline when set.
var discGraph func(cfg *config.Config) disc.Graph

// discOptions builds disc source options for device from the config.
func discOptions(cfg *config.Config, device string, logger *slog.Logger) importer.DiscOptions {
	opts := importer.DiscOptionsFromConfig(cfg)
	opts.Device = device
	opts.Logger = logger
	if discGraph != nil {
		opts.Graph = discGraph(cfg)
	}
	return opts
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Identify and import discs or folders",
	}
	importCmd.AddCommand(newImportDiscCommand(ctx))
	importCmd.AddCommand(newImportFolderCommand(ctx))
	return importCmd
}

func newImportDiscCommand(ctx *commandContext) *cobra.Command {
	var rip bool
	var mediumPath string
	cmd := &cobra.Command{
		Use:   "disc",
		Short: "Read the disc in the configured drive and optionally rip it into the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rip && mediumPath == "" {
				return errors.New("--rip needs --medium FILE describing the disc's recordings")
			}
			medium, err := loadMediumFlag(mediumPath)
			if err != nil {
				return err
			}
			if err := requireTools(ctx); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				source, err := importer.NewDiscSource(discOptions(cfg, cfg.Disc.Device, logger))
				if err != nil {
					return err
				}
				return runImport(c, cmd, cfg, store, source, logger, medium, rip)
			})
		},
	}
	cmd.Flags().BoolVar(&rip, "rip", false, "Rip the disc and add it to the library")
	cmd.Flags().StringVar(&mediumPath, "medium", "", "Medium document describing the disc")
	return cmd
}

func newImportFolderCommand(ctx *commandContext) *cobra.Command {
	var mediumPath string
	cmd := &cobra.Command{
		Use:   "folder DIR",
		Short: "Import the FLAC files of a folder; with --medium they are copied into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			medium, err := loadMediumFlag(mediumPath)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				return runImport(c, cmd, cfg, store, importer.NewFolderSource(dir), logger, medium, medium != nil)
			})
		},
	}
	cmd.Flags().StringVar(&mediumPath, "medium", "", "Medium document describing the folder's recordings")
	return cmd
}

func loadMediumFlag(path string) (*library.Medium, error) {
	if path == "" {
		return nil, nil
	}
	m, err := readMediumFile(path)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func runImport(ctx context.Context, cmd *cobra.Command, cfg *config.Config, store *library.Store, source importer.Source, logger *slog.Logger, medium *library.Medium, copyTracks bool) error {
	session, err := importer.NewSession(ctx, source, logger)
	if err != nil {
		if closer, ok := source.(importer.Closer); ok {
			_ = closer.Close()
		}
		return err
	}
	defer session.Close()
	ctx = logging.WithSessionID(ctx, session.ID())

	out := cmd.OutOrStdout()
	tracks := session.Tracks()
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = []string{strconv.Itoa(t.Number), t.Name, formatDuration(t.Duration)}
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Track", "Length"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
	fmt.Fprintf(out, "Source ID: %s\n", session.SourceID())

	matches, err := importer.Match(ctx, store, session)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "Not in the library yet")
	}
	for _, m := range matches {
		fmt.Fprintf(out, "Already imported as %s (%s)\n", m.ID, m.Name)
	}
	if !copyTracks || medium == nil {
		return nil
	}

	session.Copy(ctx)
	status, err := waitForSession(ctx, cmd, session, len(tracks))
	if err != nil {
		return err
	}
	if status.State == importer.StateFailed {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "import aborted", "import_aborted",
			logging.Error(status.Err),
			logging.String(logging.FieldImpact, "nothing was added to the library"),
		)
		return status.Err
	}

	opts := importer.FinalizeOptionsFromConfig(cfg)
	opts.Logger = logger
	result, err := importer.Finalize(ctx, store, session, *medium, opts)
	if err != nil {
		return err
	}

	var size uint64
	for _, set := range result.TrackSets {
		for _, t := range set.Tracks {
			if info, err := os.Stat(filepath.Join(cfg.Paths.LibraryDir, filepath.FromSlash(t.Path))); err == nil {
				size += uint64(info.Size())
			}
		}
	}
	logging.WithContext(logging.WithMediumID(ctx, result.ID), logger).Info("import finished",
		logging.String(logging.FieldEventType, "import_finished"),
		logging.Uint64("bytes", size),
	)
	fmt.Fprintf(out, "Imported medium %s with %d tracks (%s)\n", result.ID, result.TrackCount(), humanize.Bytes(size))
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
