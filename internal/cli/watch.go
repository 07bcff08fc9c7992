package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailtriage/internal/status"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sweep the mailbox, then file new mail as it arrives (IDLE)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup(cmd, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := context.WithCancel(commandContext(cmd))
		defer cancel()

		tracker := status.NewTracker(rt.runID)
		serverErr := make(chan error, 1)
		if rt.env.StatusAddr != "" {
			app := status.NewApp(tracker)
			go func() {
				serverErr <- status.Serve(ctx, rt.env.StatusAddr, app, rt.log)
			}()
		} else {
			close(serverErr)
		}

		client, err := rt.connect()
		if err != nil {
			return err
		}
		defer client.Close()

		runner, err := rt.pipeline(ctx, client, pipelineOptions{tracker: tracker})
		if err != nil {
			return err
		}

		runErr := runner.Run(ctx)
		cancel()
		if err := <-serverErr; err != nil {
			rt.log.Warn("status endpoint stopped", "error", err)
		}
		return runErr
	},
}
