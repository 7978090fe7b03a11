package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/domain/line"
	"github.com/oshokin/commute-alarm/internal/repository/alarms"
)

// testDSNEnv names the variable that enables database tests.
const testDSNEnv = "COMMUTE_ALARM_TEST_DSN"

// openTestDB connects to a scratch database or skips the test.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skip(testDSNEnv + " not set")
	}

	ctx := context.Background()

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `DELETE FROM commute_alarms`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM commute_line_cache`)
	require.NoError(t, err)

	return db
}

// TestAlarmRepository runs the repository contract against PostgreSQL.
// Tests share one database, so they do not run in parallel.
func TestAlarmRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewAlarmRepository(db)

	now := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)

	first := alarm.New(alarm.TimeOfDay{Hour: 8}, alarm.NewWeekdays(time.Monday), []string{"central"}, now)
	require.NoError(t, repo.Create(ctx, first))
	require.ErrorIs(t, repo.Create(ctx, first), alarms.ErrAlreadyExists)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.Days, got.Days)
	require.Equal(t, first.Lines, got.Lines)
	require.True(t, got.CreatedAt.Equal(now))

	for i := 1; i < alarm.MaxAlarms; i++ {
		require.NoError(t, repo.Create(ctx, alarm.New(alarm.TimeOfDay{Hour: 6, Minute: i}, 0, []string{"victoria"}, now)))
	}

	extra := alarm.New(alarm.TimeOfDay{Hour: 9}, 0, []string{"victoria"}, now)
	require.ErrorIs(t, repo.Create(ctx, extra), alarms.ErrLimitReached)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, alarm.MaxAlarms, count)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, alarm.MaxAlarms)
	require.Equal(t, 6, list[0].Time.Hour)

	require.NoError(t, repo.SetEnabled(ctx, first.ID, false, now.Add(time.Hour)))
	got, err = repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, got.Enabled)

	require.NoError(t, repo.Delete(ctx, first.ID))
	require.ErrorIs(t, repo.Delete(ctx, first.ID), alarms.ErrNotFound)

	_, err = repo.Get(ctx, first.ID)
	require.ErrorIs(t, err, alarms.ErrNotFound)
}

// TestLineCache runs the cache contract against PostgreSQL.
func TestLineCache(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cache := NewLineCache(db)

	_, ok, err := cache.LastUpdated(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	at := time.Date(2026, time.October, 15, 7, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Upsert(ctx, []line.Status{
		{ID: "victoria", Name: "Victoria", Severity: 6},
		{ID: "central", Name: "Central", Severity: 10},
	}, at, 10*time.Minute))

	all, err := cache.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "central", all[0].ID)

	latest, ok, err := cache.LastUpdated(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, latest.Equal(at))

	require.NoError(t, cache.Clear(ctx))

	all, err = cache.All(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}
