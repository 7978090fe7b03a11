package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/commute-alarm/internal/config"
	"github.com/oshokin/commute-alarm/internal/service/client"
	"github.com/oshokin/commute-alarm/internal/version"
)

var (
	// options is shared by every subcommand.
	options = new(client.Options)

	// rootCmd represents the base command for controlling the daemon.
	rootCmd = &cobra.Command{
		Use:   "commute-alarmctl",
		Short: "Manage commute alarms and line statuses.",
		Long: `Controls a running commute-alarmd over gRPC.

Alarms fire at a wall-clock time, once or on selected weekdays, and report the status
of the lines they monitor. At most 10 alarms can be stored.
The daemon address is read from the configuration file unless --server is given.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			options.Out = cmd.OutOrStdout()
		},
	}
)

// Execute runs the commute-alarmctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&options.ServerAddress, "server", "s", "", "daemon address, overrides the configuration file")
	flags.BoolVar(&options.JSON, "json", false, "print responses as JSON")
}
