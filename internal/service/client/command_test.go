package client

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/commute-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/commute-alarm/internal/config"
	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/domain/line"
)

func ptr[T any](v T) *T {
	return &v
}

// TestChanges_Apply overlays only the given fields.
func TestChanges_Apply(t *testing.T) {
	t.Parallel()

	draft := &api.AlarmDraft{Time: "07:30", Days: alarm.WorkingDays, Lines: []string{"central"}}

	require.NoError(t, Changes{Time: ptr("08:15")}.apply(draft))
	require.Equal(t, "08:15", draft.Time)
	require.Equal(t, alarm.WorkingDays, draft.Days)

	require.NoError(t, Changes{Days: ptr("once"), Lines: ptr([]string{"victoria"}), Enabled: ptr(false)}.apply(draft))
	require.True(t, draft.Days.Empty())
	require.Equal(t, []string{"victoria"}, draft.Lines)
	require.False(t, *draft.Enabled)

	require.Error(t, Changes{Days: ptr("someday")}.apply(draft))
}

// TestDomainAlarm converts a wire alarm back to the domain model.
func TestDomainAlarm(t *testing.T) {
	t.Parallel()

	a, err := domainAlarm(&api.AlarmView{ID: "a1", Time: "06:05", Days: alarm.Weekend, Lines: []string{"central"}})
	require.NoError(t, err)
	require.Equal(t, alarm.TimeOfDay{Hour: 6, Minute: 5}, a.Time)
	require.Equal(t, alarm.Weekend, a.Days)

	_, err = domainAlarm(&api.AlarmView{ID: "a1", Time: "25:00"})
	require.Error(t, err)
}

// TestPrintAlarms renders one row per alarm.
func TestPrintAlarms(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, time.October, 19, 7, 30, 0, 0, time.UTC)

	var out bytes.Buffer
	require.NoError(t, printAlarms(&out, []api.AlarmView{{
		ID:          "a1",
		DisplayTime: "7:30 AM",
		DisplayDays: "Weekdays",
		Lines:       []string{"central", "victoria"},
		Enabled:     true,
		NextTrigger: &next,
	}}))

	require.Contains(t, out.String(), "ID")
	require.Contains(t, out.String(), "central,victoria")
	require.Contains(t, out.String(), "Mon 19 Oct 07:30")
}

// TestPrintSnapshot marks stale entries and handles an empty cache.
func TestPrintSnapshot(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, printSnapshot(&out, &api.LineSnapshot{}, time.Now()))
	require.Contains(t, out.String(), "No cached line statuses")

	now := time.Date(2026, time.October, 15, 7, 0, 0, 0, time.UTC)
	updated := now.Add(-time.Hour)

	out.Reset()
	require.NoError(t, printSnapshot(&out, &api.LineSnapshot{
		Lines: []line.Cached{{
			Status:    line.Status{ID: "central", Name: "Central", Severity: 6, Description: "Severe Delays"},
			UpdatedAt: updated,
			ExpiresAt: updated.Add(10 * time.Minute),
		}},
		LastUpdated: &updated,
	}, now))
	require.Contains(t, out.String(), "Severe Delays")
	require.Contains(t, out.String(), "true")
}

// TestResolveServer prefers the override and tolerates a missing settings file.
func TestResolveServer(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, _, err := resolveServer(&Options{ConfigPath: missing})
	require.Error(t, err)

	addr, timeout, err := resolveServer(&Options{ConfigPath: missing, ServerAddress: "127.0.0.1:1"})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:1", addr)
	require.Equal(t, config.DefaultTimeout, timeout)

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, &config.Config{GRPCAddress: "127.0.0.1:50051", Timeout: 3 * time.Second}))

	addr, timeout, err = resolveServer(&Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:50051", addr)
	require.Equal(t, 3*time.Second, timeout)
}
