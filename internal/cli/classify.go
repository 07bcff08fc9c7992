package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailtriage/internal/address"
	"github.com/aaronromeo/mailtriage/internal/config"
	"github.com/aaronromeo/mailtriage/internal/header"
	"github.com/aaronromeo/mailtriage/internal/message"
	"github.com/aaronromeo/mailtriage/internal/rules"
	"github.com/aaronromeo/mailtriage/internal/telemetry"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Print the routing decision for a message read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(); err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		env, err := config.RoutingFromEnv()
		if err != nil {
			return err
		}
		patterns, err := env.Patterns()
		if err != nil {
			return err
		}

		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		log := telemetry.NewLogger(cmd.ErrOrStderr(), level, false)

		raw, err := readMessage(cmd, args)
		if err != nil {
			return err
		}

		extractor := header.NewExtractor(address.NewResolver(patterns, log), log)
		h, err := extractor.Extract(raw, message.Identity{})
		if err != nil {
			return err
		}

		d := rules.Default(config.RuleOptions(cfg, env)).Classify(h)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "from: %s\n", h.From)
		fmt.Fprintf(out, "to: %s\n", h.To)
		fmt.Fprintf(out, "rule: %s\n", d.Rule)
		if d.Action == rules.Move {
			fmt.Fprintf(out, "action: move to %q\n", d.Destination)
		} else {
			fmt.Fprintln(out, "action: none")
		}
		return nil
	},
}

func readMessage(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}
