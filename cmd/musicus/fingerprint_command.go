package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"musicus/internal/disc/fingerprint"
)

func newFingerprintCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "fingerprint <ms>...",
		Short:       "Compute the source ID for a list of track durations in milliseconds",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			durations := make([]uint64, len(args))
			for i, arg := range args {
				v, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("duration %q: %w", arg, err)
				}
				durations[i] = v
			}
			fmt.Fprintln(cmd.OutOrStdout(), fingerprint.Compute(durations))
			return nil
		},
	}
}
