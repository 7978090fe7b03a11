package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/commute-alarm/internal/service/client"
)

// draftFlags are the alarm fields accepted by create and update.
type draftFlags struct {
	time  string
	days  string
	lines []string
	off   bool
}

// register adds the alarm field flags to cmd.
func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.time, "time", "t", "", "trigger time as HH:MM")
	cmd.Flags().StringVarP(&f.days, "days", "d", "", `weekdays, e.g. "mon,wed", "weekdays", or "once"`)
	cmd.Flags().StringSliceVarP(&f.lines, "lines", "l", nil, "monitored line ids, e.g. central,victoria")
	cmd.Flags().BoolVar(&f.off, "disabled", false, "store the alarm disabled")
}

// changes returns the fields explicitly set on cmd.
func (f *draftFlags) changes(cmd *cobra.Command) client.Changes {
	var c client.Changes

	if cmd.Flags().Changed("time") {
		c.Time = &f.time
	}

	if cmd.Flags().Changed("days") {
		c.Days = &f.days
	}

	if cmd.Flags().Changed("lines") {
		c.Lines = &f.lines
	}

	if cmd.Flags().Changed("disabled") {
		enabled := !f.off
		c.Enabled = &enabled
	}

	return c
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List alarms with their next trigger.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.List(cmd.Context(), options)
		},
	}
}

func newCreateCmd() *cobra.Command {
	flags := new(draftFlags)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an alarm.",
		Example: `  commute-alarmctl create --time 07:30 --days weekdays --lines central,victoria
  commute-alarmctl create --time 06:45 --lines jubilee`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.Create(cmd.Context(), options, flags.changes(cmd))
		},
	}

	flags.register(cmd)

	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("lines")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	flags := new(draftFlags)

	cmd := &cobra.Command{
		Use:   "update <alarm-id>",
		Short: "Change the fields of an alarm; omitted flags keep their value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.Update(cmd.Context(), options, args[0], flags.changes(cmd))
		},
	}

	flags.register(cmd)

	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <alarm-id>",
		Short: "Delete an alarm and cancel its wake-up.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.Delete(cmd.Context(), options, args[0])
		},
	}
}

func newSetEnabledCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <alarm-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.SetEnabled(cmd.Context(), options, args[0], enabled)
		},
	}
}

func newTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <alarm-id>",
		Short: "Deliver an alarm's notification now without changing its schedule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.Trigger(cmd.Context(), options, args[0])
		},
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(
		newListCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newSetEnabledCmd("enable", "Enable and schedule an alarm.", true),
		newSetEnabledCmd("disable", "Disable an alarm and cancel its wake-up.", false),
		newTriggerCmd(),
	)
}
