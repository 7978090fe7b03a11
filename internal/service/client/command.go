package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	api "github.com/oshokin/commute-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/commute-alarm/internal/config"
	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/service/common"
	"github.com/oshokin/commute-alarm/internal/service/export"
)

// Options configures how commute-alarmctl reaches the daemon and prints results.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// JSON prints responses as indented JSON instead of tables.
	JSON bool
	// Out receives the output, os.Stdout when nil.
	Out io.Writer
}

// Changes holds the alarm fields given on the command line; nil means unchanged.
type Changes struct {
	// Time is the trigger time as HH:MM.
	Time *string
	// Days is a comma-separated weekday list, "once" for a one-time alarm.
	Days *string
	// Lines are the monitored line ids.
	Lines *[]string
	// Enabled sets the enabled flag.
	Enabled *bool
}

// List prints every alarm.
func List(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, func(c *common.Client) error {
		list, err := c.ListAlarms(ctx)
		if err != nil {
			return err
		}

		if opts.JSON {
			return printJSON(opts.out(), list)
		}

		if err = printAlarms(opts.out(), list.Alarms); err != nil {
			return err
		}

		if !list.CanCreateMore {
			_, err = fmt.Fprintf(opts.out(), "Alarm limit of %d reached\n", alarm.MaxAlarms)
		}

		return err
	})
}

// Create stores a new alarm from changes; Time and Lines are required.
func Create(ctx context.Context, opts *Options, changes Changes) error {
	draft := new(api.AlarmDraft)
	if err := changes.apply(draft); err != nil {
		return err
	}

	return withClient(ctx, opts, func(c *common.Client) error {
		created, err := c.CreateAlarm(ctx, draft)
		if err != nil {
			return err
		}

		return opts.printAlarm(created)
	})
}

// Update overlays changes on the stored alarm id.
func Update(ctx context.Context, opts *Options, id string, changes Changes) error {
	return withClient(ctx, opts, func(c *common.Client) error {
		current, err := c.GetAlarm(ctx, id)
		if err != nil {
			return err
		}

		draft := &api.AlarmDraft{
			ID:      current.ID,
			Time:    current.Time,
			Days:    current.Days,
			Lines:   current.Lines,
			Enabled: &current.Enabled,
		}

		if err = changes.apply(draft); err != nil {
			return err
		}

		updated, err := c.UpdateAlarm(ctx, draft)
		if err != nil {
			return err
		}

		return opts.printAlarm(updated)
	})
}

// Delete removes an alarm.
func Delete(ctx context.Context, opts *Options, id string) error {
	return withClient(ctx, opts, func(c *common.Client) error {
		if err := c.DeleteAlarm(ctx, id); err != nil {
			return err
		}

		_, err := fmt.Fprintf(opts.out(), "Alarm %s deleted\n", id)

		return err
	})
}

// SetEnabled enables or disables an alarm.
func SetEnabled(ctx context.Context, opts *Options, id string, enabled bool) error {
	return withClient(ctx, opts, func(c *common.Client) error {
		updated, err := c.SetAlarmEnabled(ctx, id, enabled)
		if err != nil {
			return err
		}

		return opts.printAlarm(updated)
	})
}

// Trigger asks the daemon to present an alarm's notification now and prints it.
func Trigger(ctx context.Context, opts *Options, id string) error {
	return withClient(ctx, opts, func(c *common.Client) error {
		presented, err := c.TriggerAlarm(ctx, id)
		if err != nil {
			return err
		}

		if opts.JSON {
			return printJSON(opts.out(), presented)
		}

		_, err = fmt.Fprintln(opts.out(), presented.Text())

		return err
	})
}

// Lines prints the daemon's cached line statuses.
func Lines(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, func(c *common.Client) error {
		snapshot, err := c.GetLineStatuses(ctx)
		if err != nil {
			return err
		}

		if opts.JSON {
			return printJSON(opts.out(), snapshot)
		}

		return printSnapshot(opts.out(), snapshot, time.Now())
	})
}

// Refresh runs one fetch on the daemon and prints its final result.
func Refresh(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, func(c *common.Client) error {
		result, err := c.RefreshLineStatuses(ctx)
		if err != nil {
			return err
		}

		if opts.JSON {
			return printJSON(opts.out(), result)
		}

		if result.Kind == "error" {
			_, err = fmt.Fprintf(opts.out(), "Refresh failed: %s\n", result.Message)

			return err
		}

		_, err = fmt.Fprintf(opts.out(), "Refreshed %d line(s)\n", len(result.Lines))

		return err
	})
}

// ExportICal writes the alarms as an iCalendar document.
func ExportICal(ctx context.Context, opts *Options, exportOpts export.Options) error {
	return withClient(ctx, opts, func(c *common.Client) error {
		list, err := c.ListAlarms(ctx)
		if err != nil {
			return err
		}

		alarms := make([]*alarm.Alarm, 0, len(list.Alarms))

		for i := range list.Alarms {
			a, err := domainAlarm(&list.Alarms[i])
			if err != nil {
				return err
			}

			alarms = append(alarms, a)
		}

		return export.Write(opts.out(), alarms, time.Now(), exportOpts)
	})
}

// withClient dials the daemon, runs fn and closes the connection.
func withClient(ctx context.Context, opts *Options, fn func(c *common.Client) error) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "commute-alarmctl")

	address, timeout, err := resolveServer(opts)
	if err != nil {
		return err
	}

	dialOpts := []common.Option{common.WithCallTimeout(timeout)}

	// Identify current user and hostname for the daemon's audit log.
	if actor, err := common.DetectActor(); err == nil {
		dialOpts = append(dialOpts, common.WithActor(actor))
	} else {
		logger.DebugKV(ctx, "Actor detection failed", "error", err)
	}

	client, err := common.Dial(ctx, address, dialOpts...)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to daemon", "server_address", address)

	return fn(client)
}

// resolveServer returns the daemon address and call timeout. A missing
// settings file is tolerated when the address is given explicitly.
func resolveServer(opts *Options) (string, time.Duration, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		if opts.ServerAddress == "" {
			return "", 0, fmt.Errorf("load settings: %w", err)
		}

		return opts.ServerAddress, config.DefaultTimeout, nil
	}

	if opts.ServerAddress != "" {
		return opts.ServerAddress, cfg.Timeout, nil
	}

	return cfg.GRPCAddress, cfg.Timeout, nil
}

// apply overlays the given changes on draft.
func (c Changes) apply(draft *api.AlarmDraft) error {
	if c.Time != nil {
		draft.Time = *c.Time
	}

	if c.Days != nil {
		days, err := alarm.ParseWeekdays(*c.Days)
		if err != nil {
			return err
		}

		draft.Days = days
	}

	if c.Lines != nil {
		draft.Lines = *c.Lines
	}

	if c.Enabled != nil {
		draft.Enabled = c.Enabled
	}

	return nil
}

// domainAlarm converts a wire alarm back to the domain model.
func domainAlarm(v *api.AlarmView) (*alarm.Alarm, error) {
	at, err := alarm.ParseTimeOfDay(v.Time)
	if err != nil {
		return nil, err
	}

	return &alarm.Alarm{
		ID:         v.ID,
		Time:       at,
		Days:       v.Days,
		Lines:      v.Lines,
		Enabled:    v.Enabled,
		CreatedAt:  v.CreatedAt,
		ModifiedAt: v.ModifiedAt,
	}, nil
}

func (o *Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}

	return o.Out
}

func (o *Options) printAlarm(v *api.AlarmView) error {
	if o.JSON {
		return printJSON(o.out(), v)
	}

	return printAlarms(o.out(), []api.AlarmView{*v})
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	return nil
}

// printAlarms renders alarms as an aligned table.
func printAlarms(w io.Writer, alarms []api.AlarmView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "ID\tTIME\tDAYS\tLINES\tENABLED\tNEXT")

	for _, v := range alarms {
		next := "-"
		if v.NextTrigger != nil {
			next = v.NextTrigger.Format("Mon 02 Jan 15:04")
		}

		_, _ = fmt.Fprintf(
			tw,
			"%s\t%s\t%s\t%s\t%t\t%s\n",
			v.ID, v.DisplayTime, v.DisplayDays, strings.Join(v.Lines, ","), v.Enabled, next,
		)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

// printSnapshot renders cached statuses, marking stale entries.
func printSnapshot(w io.Writer, snapshot *api.LineSnapshot, now time.Time) error {
	if snapshot.LastUpdated == nil {
		_, err := fmt.Fprintln(w, "No cached line statuses")

		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(tw, "Last updated %s\n", snapshot.LastUpdated.Local().Format(time.DateTime))
	_, _ = fmt.Fprintln(tw, "LINE\tSTATUS\tSEVERITY\tSTALE")

	for i := range snapshot.Lines {
		entry := &snapshot.Lines[i]
		_, _ = fmt.Fprintf(
			tw,
			"%s\t%s\t%d\t%t\n",
			entry.Name, entry.StatusText(), entry.Severity, entry.Expired(now),
		)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
