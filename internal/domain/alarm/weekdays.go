package alarm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Weekdays is a set of days of the week stored as a bit mask indexed by time.Weekday.
type Weekdays uint8

const (
	// WorkingDays is Monday through Friday.
	WorkingDays = Weekdays(1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday)
	// Weekend is Saturday and Sunday.
	Weekend = Weekdays(1<<time.Saturday | 1<<time.Sunday)
	// EveryDay has all seven days set.
	EveryDay = WorkingDays | Weekend
)

// errUnknownWeekday is returned when a day name cannot be parsed.
var errUnknownWeekday = errors.New("unknown weekday")

// NewWeekdays builds a set from the given days.
func NewWeekdays(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w = w.With(d)
	}

	return w
}

// With returns the set with d added.
func (w Weekdays) With(d time.Weekday) Weekdays {
	return w | 1<<d
}

// Has reports whether d is in the set.
func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<d) != 0
}

// Empty reports whether no day is set.
func (w Weekdays) Empty() bool {
	return w&EveryDay == 0
}

// List returns the days in the set ordered Monday first.
func (w Weekdays) List() []time.Weekday {
	days := make([]time.Weekday, 0, 7)

	for i := range 7 {
		d := time.Weekday((i + 1) % 7)
		if w.Has(d) {
			days = append(days, d)
		}
	}

	return days
}

// String renders the set as comma-separated upper-case day names.
func (w Weekdays) String() string {
	days := w.List()
	names := make([]string, 0, len(days))

	for _, d := range days {
		names = append(names, strings.ToUpper(d.String()))
	}

	return strings.Join(names, ",")
}

// MarshalJSON encodes the set as an array of day names.
func (w Weekdays) MarshalJSON() ([]byte, error) {
	days := w.List()
	names := make([]string, 0, len(days))

	for _, d := range days {
		names = append(names, strings.ToUpper(d.String()))
	}

	return json.Marshal(names)
}

// UnmarshalJSON decodes an array of day names.
func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}

	parsed, err := ParseWeekdays(strings.Join(names, ","))
	if err != nil {
		return err
	}

	*w = parsed

	return nil
}

// ParseWeekdays parses a comma-separated list of day names or abbreviations.
// The shortcuts "weekdays", "weekend", "daily" and "once" are accepted.
func ParseWeekdays(s string) (Weekdays, error) {
	var w Weekdays

	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))

		switch part {
		case "", "once":
			continue
		case "weekdays":
			w |= WorkingDays

			continue
		case "weekend", "weekends":
			w |= Weekend

			continue
		case "daily", "everyday":
			w |= EveryDay

			continue
		}

		d, ok := parseWeekday(part)
		if !ok {
			return 0, fmt.Errorf("%w: %q", errUnknownWeekday, part)
		}

		w = w.With(d)
	}

	return w, nil
}

// parseWeekday matches a full day name or its three-letter prefix.
func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, true
		}
	}

	return 0, false
}
