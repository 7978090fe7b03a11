package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/commute-alarm/internal/service/client"
	"github.com/oshokin/commute-alarm/internal/service/export"
)

// includeDisabled exports disabled alarms too.
var includeDisabled bool

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	exportCmd := &cobra.Command{
		Use:   "export-ical",
		Short: "Print the alarms as an iCalendar document.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.ExportICal(cmd.Context(), options, export.Options{IncludeDisabled: includeDisabled})
		},
	}
	exportCmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "export disabled alarms as cancelled events")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "lines",
			Short: "Show the cached line statuses of the daemon.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return client.Lines(cmd.Context(), options)
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Fetch line statuses now and update the daemon cache.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return client.Refresh(cmd.Context(), options)
			},
		},
		exportCmd,
	)
}
