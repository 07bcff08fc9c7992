package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailtriage/internal/status"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Classify and file every message in the mailbox once, then exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}

		rt, err := setup(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer rt.close()

		client, err := rt.connect()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx := commandContext(cmd)
		tracker := status.NewTracker(rt.runID)
		runner, err := rt.pipeline(ctx, client, pipelineOptions{dryRun: dryRun, tracker: tracker})
		if err != nil {
			return err
		}

		sweepErr := runner.Sweep(ctx)
		snap := tracker.Snapshot()
		verb := "moved"
		if dryRun {
			verb = "would move"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "observed %d, %s %d, left %d (next uid %d)\n",
			snap.Observed, verb, snap.Moved, snap.Skipped, runner.Watermark().Next)
		return sweepErr
	},
}

func init() {
	sweepCmd.Flags().Bool("dry-run", false, "Classify and log decisions without moving anything")
}
