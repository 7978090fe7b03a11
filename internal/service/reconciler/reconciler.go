package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/logger"
)

// AlarmLister returns every stored alarm.
type AlarmLister interface {
	List(ctx context.Context) ([]*alarm.Alarm, error)
}

// AlarmScheduler registers the next trigger of an alarm.
type AlarmScheduler interface {
	Schedule(ctx context.Context, a *alarm.Alarm) (time.Time, bool)
}

// Report summarizes one reconciliation pass.
type Report struct {
	// Scheduled holds the ids that got a registration.
	Scheduled []string
	// Failed holds the ids left unscheduled.
	Failed []string
}

// Reconciler restores platform registrations from stored alarms.
type Reconciler struct {
	alarms    AlarmLister
	scheduler AlarmScheduler
}

// New constructs a reconciler.
func New(alarms AlarmLister, scheduler AlarmScheduler) *Reconciler {
	return &Reconciler{
		alarms:    alarms,
		scheduler: scheduler,
	}
}

// ReconcileOnStartup schedules every enabled alarm. One alarm failing, even by
// panicking, does not keep the others from being scheduled. Only a failure to
// read the alarm list is returned.
func (r *Reconciler) ReconcileOnStartup(ctx context.Context) (Report, error) {
	ctx = logger.WithName(ctx, "reconciler")

	all, err := r.alarms.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list alarms: %w", err)
	}

	var report Report

	for _, a := range all {
		if a == nil || !a.Enabled {
			continue
		}

		if r.scheduleOne(ctx, a) {
			report.Scheduled = append(report.Scheduled, a.ID)
		} else {
			report.Failed = append(report.Failed, a.ID)
		}
	}

	logger.InfoKV(ctx, "Alarms reconciled",
		"total", len(all),
		"scheduled", len(report.Scheduled),
		"failed", len(report.Failed),
	)

	return report, nil
}

// scheduleOne isolates the registration of a single alarm.
func (r *Reconciler) scheduleOne(ctx context.Context, a *alarm.Alarm) (ok bool) {
	ctx = logger.WithKV(ctx, "alarm_id", a.ID)

	defer func() {
		if p := recover(); p != nil {
			logger.ErrorKV(ctx, "Scheduling alarm panicked", "panic", fmt.Sprint(p))

			ok = false
		}
	}()

	_, ok = r.scheduler.Schedule(ctx, a)

	return ok
}
