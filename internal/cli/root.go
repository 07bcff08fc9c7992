package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "mailtriage",
	Short:         "mailtriage files new mail into folders as it arrives",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which ends a pending IDLE and logs out.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML routing tables (or set MAILTRIAGE_CONFIG)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().Bool("otel-stdout", false, "Export OpenTelemetry log records to stdout")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(foldersCmd)
	rootCmd.AddCommand(classifyCmd)
}
