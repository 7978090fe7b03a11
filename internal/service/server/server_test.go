package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/commute-alarm/internal/config"
	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/notify"
	"github.com/oshokin/commute-alarm/internal/service/alarms"
)

// TestResolveListenAddress covers override, port extraction and errors.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("alarm.local:50051", "")
	require.NoError(t, err)
	require.Equal(t, ":50051", addr)

	addr, err = resolveListenAddress("alarm.local:50051", "127.0.0.1:9000")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

// TestApplyLogLevel rejects unknown level names.
func TestApplyLogLevel(t *testing.T) {
	t.Parallel()

	require.NoError(t, applyLogLevel("", ""))
	require.ErrorIs(t, applyLogLevel("info", "loud"), errUnknownLogLevel)
}

// TestPresenters adds the webhook only when configured.
func TestPresenters(t *testing.T) {
	t.Parallel()

	require.Len(t, presenters(config.NotifyConfig{}), 1)

	chain := presenters(config.NotifyConfig{WebhookURL: "https://hooks.local/x"})
	require.Len(t, chain, 2)
	require.IsType(t, &notify.WebhookPresenter{}, chain[1])
}

// TestBuild_FileStore wires the file driver and arms created alarms.
func TestBuild_FileStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	settings := &config.Config{
		GRPCAddress: "127.0.0.1:0",
		Store:       config.StoreConfig{Driver: config.DriverFile, Dir: dir},
	}
	require.NoError(t, config.Validate(settings))

	app, err := build(t.Context(), settings)
	require.NoError(t, err)

	t.Cleanup(app.Close)

	created, err := app.alarms.Create(t.Context(), alarms.Draft{
		Time:    alarm.TimeOfDay{Hour: 7, Minute: 30},
		Days:    alarm.NewWeekdays(time.Monday),
		Lines:   []string{"central"},
		Enabled: true,
	})
	require.NoError(t, err)

	_, pending := app.platform.Pending(created.ID)
	require.True(t, pending)

	_, err = os.Stat(filepath.Join(dir, "alarms.json"))
	require.NoError(t, err)
}

// TestRun_StopsOnCancel serves until the context is canceled.
func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, &config.Config{
		GRPCAddress: "127.0.0.1:50051",
		Store:       config.StoreConfig{Driver: config.DriverFile, Dir: dir},
	}))

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(200*time.Millisecond, cancel)

	err := Run(ctx, &Options{ConfigPath: path, ListenAddress: "127.0.0.1:0"})
	require.NoError(t, err)
}
