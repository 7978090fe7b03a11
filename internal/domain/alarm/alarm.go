package alarm

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxAlarms is the maximum number of alarm configurations stored at once.
const MaxAlarms = 10

var (
	// ErrNoLines is returned when an alarm watches no lines.
	ErrNoLines = errors.New("at least one line must be selected")
	// ErrInvalidTime is returned for an hour or minute out of range.
	ErrInvalidTime = errors.New("invalid time of day")
	// ErrInvalidID is returned when an alarm has no id.
	ErrInvalidID = errors.New("alarm id must be provided")
)

// TimeOfDay is a local wall-clock time with minute precision.
type TimeOfDay struct {
	// Hour is in the 0-23 range.
	Hour int `json:"hour"`
	// Minute is in the 0-59 range.
	Minute int `json:"minute"`
}

// Valid reports whether the hour and minute are in range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// On returns the instant at this time of day on the date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()

	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// String renders the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// Alarm is a user-defined trigger configuration.
type Alarm struct {
	// ID is the opaque unique identity of the alarm.
	ID string `json:"id"`
	// Time is when the alarm fires, in local wall-clock time.
	Time TimeOfDay `json:"time"`
	// Days holds the weekdays a recurring alarm fires on; empty means one-time.
	Days Weekdays `json:"days"`
	// Lines holds the monitored line ids, never empty for a stored alarm.
	Lines []string `json:"lines"`
	// Enabled reports whether the alarm should be scheduled.
	Enabled bool `json:"enabled"`
	// CreatedAt is when the alarm was first stored.
	CreatedAt time.Time `json:"created_at"`
	// ModifiedAt is when the alarm was last written.
	ModifiedAt time.Time `json:"modified_at"`
}

// New returns an enabled alarm with a fresh id and both timestamps set to now.
func New(at TimeOfDay, days Weekdays, lines []string, now time.Time) *Alarm {
	return &Alarm{
		ID:         uuid.NewString(),
		Time:       at,
		Days:       days,
		Lines:      NormalizeLines(lines),
		Enabled:    true,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// IsOneTime reports whether the alarm fires once.
func (a *Alarm) IsOneTime() bool {
	return a.Days.Empty()
}

// IsRecurring reports whether the alarm repeats weekly.
func (a *Alarm) IsRecurring() bool {
	return !a.Days.Empty()
}

// Validate checks the invariants enforced at write time.
func (a *Alarm) Validate() error {
	if a.ID == "" {
		return ErrInvalidID
	}

	if !a.Time.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidTime, a.Time)
	}

	if len(a.Lines) == 0 {
		return ErrNoLines
	}

	return nil
}

// Clone returns a deep copy of the alarm.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.Lines = slices.Clone(a.Lines)

	return &cloned
}

// DisplayTime renders the time in 12-hour form, e.g. "7:30 AM".
func (a *Alarm) DisplayTime() string {
	return a.Time.On(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)).Format("3:04 PM")
}

// DisplayDays describes the recurrence, e.g. "Weekdays" or "Mon, Wed".
func (a *Alarm) DisplayDays() string {
	switch {
	case a.IsOneTime():
		return "One time"
	case a.Days == EveryDay:
		return "Every day"
	case a.Days == WorkingDays:
		return "Weekdays"
	case a.Days == Weekend:
		return "Weekends"
	}

	days := a.Days.List()
	names := make([]string, 0, len(days))

	for _, d := range days {
		names = append(names, d.String()[:3])
	}

	return strings.Join(names, ", ")
}

// NormalizeLines trims, lowercases, de-duplicates and sorts line ids.
func NormalizeLines(lines []string) []string {
	result := make([]string, 0, len(lines))

	for _, l := range lines {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || slices.Contains(result, l) {
			continue
		}

		result = append(result, l)
	}

	slices.Sort(result)

	return result
}

// Compare orders alarms by time of day, then by id.
func Compare(a, b *Alarm) int {
	if a.Time.Hour != b.Time.Hour {
		return a.Time.Hour - b.Time.Hour
	}

	if a.Time.Minute != b.Time.Minute {
		return a.Time.Minute - b.Time.Minute
	}

	return strings.Compare(a.ID, b.ID)
}
