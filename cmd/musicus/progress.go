package main

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"musicus/internal/importer"
)

// waitForSession follows the session's state changes until it finishes.
// Terminals get a progress bar; other writers get one line per track.
func waitForSession(ctx context.Context, cmd *cobra.Command, session *importer.Session, total int) (importer.Status, error) {
	errOut := cmd.ErrOrStderr()
	var bar *progressbar.ProgressBar
	if isTerminal(errOut) {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Ripping"),
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	last := -1
	for {
		select {
		case <-ctx.Done():
			return session.Status(), ctx.Err()
		case status := <-session.States():
			switch status.State {
			case importer.StateRipping:
				if status.Track < 0 || status.Track == last {
					continue
				}
				last = status.Track
				if bar != nil {
					_ = bar.Set(status.Track)
					bar.Describe(fmt.Sprintf("Ripping track %d/%d", status.Track+1, total))
				} else {
					fmt.Fprintf(errOut, "Copying track %d/%d\n", status.Track+1, total)
				}
			case importer.StateDone, importer.StateFailed:
				if bar != nil {
					if status.State == importer.StateDone {
						_ = bar.Finish()
					} else {
						_ = bar.Exit()
					}
				}
				return status, nil
			}
		}
	}
}
