package scheduler

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/metrics"
	"github.com/oshokin/commute-alarm/internal/schedule"
)

// Schedule modes recorded in metrics.
const (
	modeExact    = "exact"
	modeInexact  = "inexact"
	modeFailed   = "failed"
	modeDisabled = "disabled"
)

// Scheduler turns alarms into platform registrations.
type Scheduler struct {
	// platform holds the registrations.
	platform Platform
	// now returns the current time.
	now func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a scheduler over platform.
func New(platform Platform, opts ...Option) *Scheduler {
	s := &Scheduler{
		platform: platform,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Schedule registers the next trigger of a and returns its instant.
// A disabled alarm is a no-op. Platform failures are logged, never returned;
// ok is false when the alarm was left unscheduled.
func (s *Scheduler) Schedule(ctx context.Context, a *alarm.Alarm) (time.Time, bool) {
	return s.scheduleAfter(ctx, a, s.now())
}

// Reschedule cancels the registration of a and schedules its next trigger
// strictly after both now and after.
func (s *Scheduler) Reschedule(ctx context.Context, a *alarm.Alarm, after time.Time) (time.Time, bool) {
	if a == nil {
		return time.Time{}, false
	}

	s.platform.Cancel(a.ID)

	now := s.now()
	if after.After(now) {
		now = after
	}

	return s.scheduleAfter(ctx, a, now)
}

// Cancel removes the registration for id.
func (s *Scheduler) Cancel(ctx context.Context, id string) {
	s.platform.Cancel(id)
	logger.DebugKV(logger.WithName(ctx, "scheduler"), "Alarm registration canceled")
}

// scheduleAfter registers the first trigger strictly after now.
func (s *Scheduler) scheduleAfter(ctx context.Context, a *alarm.Alarm, now time.Time) (time.Time, bool) {
	ctx = logger.WithName(ctx, "scheduler")

	at, ok := schedule.NextTrigger(a, now)
	if !ok {
		metrics.IncSchedule(modeDisabled)

		return time.Time{}, false
	}

	trigger := Trigger{
		AlarmID: a.ID,
		Lines:   slices.Clone(a.Lines),
		OneTime: a.IsOneTime(),
		At:      at,
	}

	err := s.platform.SetExact(a.ID, at, trigger)
	if err == nil {
		metrics.IncSchedule(modeExact)
		logger.InfoKV(ctx, "Alarm scheduled", "at", at.Format(time.RFC3339))

		return at, true
	}

	if !errors.Is(err, ErrExactDenied) {
		logger.WarnKV(ctx, "Exact wake-up rejected", "error", err)
	}

	if err = s.platform.SetInexact(a.ID, at, trigger); err != nil {
		metrics.IncSchedule(modeFailed)
		logger.WarnKV(ctx, "Alarm left unscheduled until next reconciliation", "error", err)

		return time.Time{}, false
	}

	metrics.IncSchedule(modeInexact)
	logger.InfoKV(ctx, "Alarm scheduled with reduced precision", "at", at.Format(time.RFC3339))

	return at, true
}
