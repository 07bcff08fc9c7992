package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var foldersCmd = &cobra.Command{
	Use:   "folders [pattern]",
	Short: "List the folders on the server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
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

		names, err := client.ListFolders(commandContext(cmd), pattern)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
