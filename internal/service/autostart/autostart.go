package autostart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"

	"github.com/oshokin/commute-alarm/internal/logger"
)

const (
	// AppName is the autostart entry name.
	AppName = "commute-alarmd"
	// DisplayName is shown by desktop session managers.
	DisplayName = "Commute Alarm"
)

// Entry is the part of an autostart entry this package drives.
type Entry interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}

// Options configures the autostart entry.
type Options struct {
	// Executable overrides the daemon binary path; the running binary by default.
	Executable string
	// Args are appended to the command line, e.g. the config flag.
	Args []string
}

// NewEntry builds the autostart entry for the daemon.
func NewEntry(opts Options) (*autostart.App, error) {
	exec := opts.Executable
	if exec == "" {
		current, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}

		exec = current
	}

	resolved, err := filepath.EvalSymlinks(exec)
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	return &autostart.App{
		Name:        AppName,
		DisplayName: DisplayName,
		Exec:        append([]string{resolved}, opts.Args...),
	}, nil
}

// Set enables or disables entry; it is a no-op when already in that state.
func Set(ctx context.Context, entry Entry, enable bool) error {
	ctx = logger.WithName(ctx, "autostart")

	if entry.IsEnabled() == enable {
		logger.InfoKV(ctx, "Autostart unchanged", "enabled", enable)

		return nil
	}

	if enable {
		if err := entry.Enable(); err != nil {
			return fmt.Errorf("enable autostart: %w", err)
		}

		logger.Info(ctx, "Autostart enabled")

		return nil
	}

	if err := entry.Disable(); err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}

	logger.Info(ctx, "Autostart disabled")

	return nil
}
