package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/commute-alarm/internal/service/autostart"
)

// autostartCmd groups the login autostart subcommands.
var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage starting the daemon at login.",
	Long: `Registers or removes the daemon as a login item of the current user.

The registered command line points at this binary and the absolute path of the
configuration file, so reconciliation runs again after every reboot.`,
}

// newAutostartSetCmd builds the enable or disable subcommand.
func newAutostartSetCmd(use, short string, enable bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := autostartEntry()
			if err != nil {
				return err
			}

			return autostart.Set(cmd.Context(), entry, enable)
		},
	}
}

// autostartEntry builds the entry for this binary and the configured settings file.
func autostartEntry() (autostart.Entry, error) {
	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	return autostart.NewEntry(autostart.Options{Args: []string{"--config", absConfig}})
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	autostartCmd.AddCommand(
		newAutostartSetCmd("enable", "Start the daemon at login.", true),
		newAutostartSetCmd("disable", "Stop starting the daemon at login.", false),
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the daemon starts at login.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				entry, err := autostartEntry()
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "autostart enabled: %t\n", entry.IsEnabled())

				return err
			},
		},
	)
}
