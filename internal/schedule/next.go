package schedule

import (
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
)

// searchDays is how many days past today a weekly pattern is scanned.
// Today's slot may already have passed, so the same weekday a week later
// must still be a candidate.
const searchDays = 7

// NextTrigger returns the first instant strictly after now at which a fires.
// The boolean is false only for a disabled alarm.
//
// A one-time alarm fires today if its time is still ahead, otherwise tomorrow.
// A recurring alarm fires on the first selected weekday, starting today,
// whose time is strictly after now.
func NextTrigger(a *alarm.Alarm, now time.Time) (time.Time, bool) {
	if a == nil || !a.Enabled {
		return time.Time{}, false
	}

	if a.IsOneTime() {
		today := a.Time.On(now)
		if today.After(now) {
			return today, true
		}

		return a.Time.On(now.AddDate(0, 0, 1)), true
	}

	return nextRecurring(a.Time, a.Days, now), true
}

// nextRecurring scans forward day by day. The week-later retry cannot be
// reached with a non-empty day set and only guards against bad input.
func nextRecurring(at alarm.TimeOfDay, days alarm.Weekdays, now time.Time) time.Time {
	for offset := 0; offset <= searchDays; offset++ {
		day := now.AddDate(0, 0, offset)
		if !days.Has(day.Weekday()) {
			continue
		}

		candidate := at.On(day)
		if candidate.After(now) {
			return candidate
		}
	}

	if days.Empty() {
		return at.On(now.AddDate(0, 0, 1))
	}

	return nextRecurring(at, days, now.AddDate(0, 0, searchDays))
}
