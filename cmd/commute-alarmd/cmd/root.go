package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/commute-alarm/internal/config"
	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/service/server"
	"github.com/oshokin/commute-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "commute-alarmd [listen-address]",
		Short: "Run the commute alarm daemon.",
		Long: `Starts the daemon that fires commute alarms and reports line statuses.

On start the daemon re-arms every enabled alarm, so alarms survive reboots and restarts.
When an alarm fires, the daemon fetches current line statuses (falling back to the local
cache when the feed is unreachable) and delivers a notification for the monitored lines.

Only the port from grpc_addr config is used for listening (e.g., :50051).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50051).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				LogLevel:      logLevel,
			})
		},
	}
)

// Execute runs the commute-alarmd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(autostartCmd)
}
