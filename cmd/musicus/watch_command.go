package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"musicus/internal/daemon"
	"musicus/internal/importer"
	"musicus/internal/library"
)

// driveReady overrides how the watcher waits for a spun-up disc; nil polls
// the drive.
var driveReady func(ctx context.Context, device string) error

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Identify discs as they are inserted into the configured drive",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			out := cmd.OutOrStdout()
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				d, err := daemon.New(cfg, daemon.Options{
					Catalog:   store,
					Logger:    logger,
					WaitReady: driveReady,
					NewSource: func(device string) (importer.Source, error) {
						opts := discOptions(cfg, device, logger)
						opts.Eject = false
						return importer.NewDiscSource(opts)
					},
					OnDetection: func(det daemon.Detection) { printDetection(out, det) },
				})
				if err != nil {
					return err
				}
				if once {
					_, err := d.Detect(c, cfg.Disc.Device)
					return err
				}

				runCtx, stop := signal.NotifyContext(c, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if err := d.Start(runCtx); err != nil {
					return err
				}
				defer d.Stop()
				printWatchStatus(out, d.Status())
				<-runCtx.Done()
				if last := d.Status().LastDetection; last != nil {
					fmt.Fprintf(out, "Last disc: %s (%s)\n", last.SourceID, formatWhen(last.DetectedAt))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Identify the disc currently in the drive and exit")
	return cmd
}

func printWatchStatus(out io.Writer, status daemon.Status) {
	fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", status.Device)
	fmt.Fprintf(out, "  lock: %s\n", status.LockFilePath)
	if !status.Monitoring {
		fmt.Fprintln(out, "  udev events unavailable; insertions are not detected, use --once")
	}
}

func printDetection(out io.Writer, det daemon.Detection) {
	fmt.Fprintf(out, "%s: %d tracks, source ID %s\n", det.Device, len(det.Tracks), det.SourceID)
	if !det.Known() {
		fmt.Fprintln(out, "  not in the library yet")
		return
	}
	for _, m := range det.Matches {
		fmt.Fprintf(out, "  imported as %s (%s)\n", m.ID, m.Name)
	}
}
