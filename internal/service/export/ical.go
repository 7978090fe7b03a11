package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/schedule"
)

const (
	// ProductID identifies the generator of exported calendars.
	ProductID = "-//commute-alarm//alarms//EN"

	// floatingLayout renders local wall-clock times without a zone.
	floatingLayout = "20060102T150405"

	// eventDuration is the length of an exported alarm event.
	eventDuration = 5 * time.Minute
)

// Options controls the export.
type Options struct {
	// IncludeDisabled exports disabled alarms as well.
	IncludeDisabled bool
}

//nolint:gochecknoglobals // Lookup table.
var byDay = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Calendar builds a calendar with one event per alarm. Recurring alarms get
// a weekly RRULE, one-time alarms a single event at their next trigger.
// Times are floating, so calendar clients show them in their local zone.
func Calendar(alarms []*alarm.Alarm, now time.Time, opts Options) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, a := range alarms {
		if a == nil || (!a.Enabled && !opts.IncludeDisabled) {
			continue
		}

		cal.Children = append(cal.Children, eventOf(a, now).Component)
	}

	return cal
}

// Write encodes the calendar of alarms to w.
func Write(w io.Writer, alarms []*alarm.Alarm, now time.Time, opts Options) error {
	if err := ical.NewEncoder(w).Encode(Calendar(alarms, now, opts)); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}

	return nil
}

// eventOf converts one alarm.
func eventOf(a *alarm.Alarm, now time.Time) *ical.Event {
	start := firstOccurrence(a, now)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, a.ID+"@commute-alarm")
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetText(ical.PropSummary, "Commute check: "+strings.Join(a.Lines, ", "))
	event.Props.SetText(ical.PropDescription, a.DisplayTime()+", "+a.DisplayDays())
	event.Props.Set(floating(ical.PropDateTimeStart, start))
	event.Props.Set(floating(ical.PropDateTimeEnd, start.Add(eventDuration)))

	if a.IsRecurring() {
		event.Props.SetRecurrenceRule(recurrence(a.Days))
	}

	if !a.Enabled {
		event.Props.SetText(ical.PropStatus, "CANCELLED")
	}

	return event
}

// firstOccurrence returns the next trigger of a, computed as if it were enabled.
func firstOccurrence(a *alarm.Alarm, now time.Time) time.Time {
	enabled := a.Clone()
	enabled.Enabled = true

	at, _ := schedule.NextTrigger(enabled, now)

	return at
}

// recurrence returns the weekly rule for days.
func recurrence(days alarm.Weekdays) *rrule.ROption {
	selected := days.List()
	weekdays := make([]rrule.Weekday, 0, len(selected))

	for _, d := range selected {
		weekdays = append(weekdays, byDay[d])
	}

	return &rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: weekdays,
	}
}

// floating builds a date-time property without zone information.
func floating(name string, t time.Time) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = t.Format(floatingLayout)

	return prop
}
