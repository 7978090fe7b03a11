package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
)

// at builds a UTC instant on the given date and time.
func at(year int, month time.Month, day, hour, minute, second int) time.Time {
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

// newAlarm builds an enabled alarm for the given time and days.
func newAlarm(hour, minute int, days alarm.Weekdays) *alarm.Alarm {
	return &alarm.Alarm{
		ID:      "a-1",
		Time:    alarm.TimeOfDay{Hour: hour, Minute: minute},
		Days:    days,
		Lines:   []string{"central"},
		Enabled: true,
	}
}

// TestNextTrigger_Disabled returns no instant for a disabled alarm.
func TestNextTrigger_Disabled(t *testing.T) {
	t.Parallel()

	a := newAlarm(8, 0, 0)
	a.Enabled = false

	_, ok := NextTrigger(a, at(2026, time.October, 15, 6, 0, 0))
	require.False(t, ok)

	_, ok = NextTrigger(nil, time.Now())
	require.False(t, ok)
}

// TestNextTrigger_OneTime picks today when the time is ahead, otherwise tomorrow.
func TestNextTrigger_OneTime(t *testing.T) {
	t.Parallel()

	a := newAlarm(7, 30, 0)

	got, ok := NextTrigger(a, at(2026, time.October, 15, 6, 0, 0))
	require.True(t, ok)
	require.Equal(t, at(2026, time.October, 15, 7, 30, 0), got)

	got, ok = NextTrigger(a, at(2026, time.October, 15, 9, 0, 0))
	require.True(t, ok)
	require.Equal(t, at(2026, time.October, 16, 7, 30, 0), got)
}

// TestNextTrigger_OneTimeExactNow treats the current instant as already passed.
func TestNextTrigger_OneTimeExactNow(t *testing.T) {
	t.Parallel()

	got, ok := NextTrigger(newAlarm(7, 30, 0), at(2026, time.October, 15, 7, 30, 0))
	require.True(t, ok)
	require.Equal(t, at(2026, time.October, 16, 7, 30, 0), got)
}

// TestNextTrigger_RecurringSameDayAhead fires later today when today is selected.
func TestNextTrigger_RecurringSameDayAhead(t *testing.T) {
	t.Parallel()

	// 2026-10-15 is a Thursday.
	a := newAlarm(18, 0, alarm.NewWeekdays(time.Thursday, time.Monday))

	got, ok := NextTrigger(a, at(2026, time.October, 15, 9, 0, 0))
	require.True(t, ok)
	require.Equal(t, at(2026, time.October, 15, 18, 0, 0), got)
}

// TestNextTrigger_RecurringSameWeekdayNextWeek covers a single selected day whose slot just passed.
func TestNextTrigger_RecurringSameWeekdayNextWeek(t *testing.T) {
	t.Parallel()

	// 2026-10-12 is a Monday; firing at exactly 08:00 must move to the next Monday.
	a := newAlarm(8, 0, alarm.NewWeekdays(time.Monday))

	got, ok := NextTrigger(a, at(2026, time.October, 12, 8, 0, 0))
	require.True(t, ok)
	require.Equal(t, at(2026, time.October, 19, 8, 0, 0), got)
}

// TestNextTrigger_RecurringProperties checks bounds and weekday membership over many starting points.
func TestNextTrigger_RecurringProperties(t *testing.T) {
	t.Parallel()

	patterns := []alarm.Weekdays{
		alarm.NewWeekdays(time.Monday),
		alarm.NewWeekdays(time.Sunday),
		alarm.WorkingDays,
		alarm.Weekend,
		alarm.EveryDay,
		alarm.NewWeekdays(time.Tuesday, time.Saturday),
	}

	start := at(2026, time.October, 11, 0, 0, 0)

	for _, days := range patterns {
		a := newAlarm(8, 15, days)

		for step := range 14 * 24 * 4 {
			now := start.Add(time.Duration(step) * 15 * time.Minute)

			got, ok := NextTrigger(a, now)
			require.True(t, ok)
			require.True(t, got.After(now), "pattern %s now %s got %s", days, now, got)
			require.LessOrEqual(t, got.Sub(now), 7*24*time.Hour, "pattern %s now %s", days, now)
			require.True(t, days.Has(got.Weekday()), "pattern %s got %s", days, got)
			require.Equal(t, 8, got.Hour())
			require.Equal(t, 15, got.Minute())
		}
	}
}

// TestNextTrigger_Pure returns identical results for identical inputs.
func TestNextTrigger_Pure(t *testing.T) {
	t.Parallel()

	a := newAlarm(8, 0, alarm.WorkingDays)
	now := at(2026, time.October, 17, 10, 0, 0)

	first, _ := NextTrigger(a, now)
	second, _ := NextTrigger(a, now)

	require.Equal(t, first, second)
	// Saturday 17th -> Monday 19th.
	require.Equal(t, at(2026, time.October, 19, 8, 0, 0), first)
}
