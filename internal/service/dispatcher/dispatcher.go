package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/domain/line"
	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/metrics"
	"github.com/oshokin/commute-alarm/internal/notify"
	"github.com/oshokin/commute-alarm/internal/repository/alarms"
	"github.com/oshokin/commute-alarm/internal/scheduler"
)

// DefaultTimeout bounds the wait for a terminal line status result.
const DefaultTimeout = 60 * time.Second

// Dispatch outcomes recorded in metrics besides the shared result labels.
const (
	outcomeDisrupted = "disrupted"
	outcomePanic     = "panic"
)

var (
	// errMalformedTrigger is logged for a trigger without id or lines.
	errMalformedTrigger = errors.New("trigger has no alarm id or lines")
	// errNoTerminalResult is used when the status sequence ended or timed out early.
	errNoTerminalResult = errors.New("no terminal line status result")
)

// AlarmStore is the part of the alarm repository the dispatcher needs.
type AlarmStore interface {
	Get(ctx context.Context, id string) (*alarm.Alarm, error)
	SetEnabled(ctx context.Context, id string, enabled bool, at time.Time) error
}

// StatusSource produces line status result sequences.
type StatusSource interface {
	Statuses(ctx context.Context) <-chan line.Result
}

// Rescheduler re-registers or cancels alarm wake-ups.
type Rescheduler interface {
	Reschedule(ctx context.Context, a *alarm.Alarm, after time.Time) (time.Time, bool)
	Cancel(ctx context.Context, id string)
}

// Locker serializes the post-dispatch bookkeeping with other writes to one alarm.
type Locker interface {
	LockAlarm(id string) func()
}

// nopLocker is used when no Locker is configured.
type nopLocker struct{}

func (nopLocker) LockAlarm(string) func() { return func() {} }

// Dispatcher turns fired triggers into notifications.
type Dispatcher struct {
	// alarms resolves trigger ids to configurations.
	alarms AlarmStore
	// statuses supplies line status snapshots.
	statuses StatusSource
	// scheduler re-registers recurring alarms.
	scheduler Rescheduler
	// presenter shows the resulting notification.
	presenter notify.Presenter
	// locker guards the re-read and rescheduling after a dispatch.
	locker Locker
	// timeout bounds the wait for a terminal result.
	timeout time.Duration
	// now returns the current time.
	now func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the wait bound for a terminal result.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithLocker shares the per-alarm write lock of the alarm service.
func WithLocker(locker Locker) Option {
	return func(d *Dispatcher) {
		if locker != nil {
			d.locker = locker
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// New constructs a dispatcher.
func New(
	store AlarmStore,
	statuses StatusSource,
	rescheduler Rescheduler,
	presenter notify.Presenter,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		alarms:    store,
		statuses:  statuses,
		scheduler: rescheduler,
		presenter: presenter,
		locker:    nopLocker{},
		timeout:   DefaultTimeout,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// OnTrigger runs one dispatch for trigger. It never panics and returns nothing:
// every failure is logged and, once the alarm is known, reported as a notification.
// Concurrent calls, including for the same alarm id, are independent.
func (d *Dispatcher) OnTrigger(ctx context.Context, trigger scheduler.Trigger) {
	ctx = logger.WithKV(logger.WithName(ctx, "dispatcher"), "alarm_id", trigger.AlarmID)

	var fired *alarm.Alarm

	defer func() {
		if r := recover(); r != nil {
			metrics.IncDispatch(outcomePanic)
			logger.ErrorKV(ctx, "Dispatch panicked", "panic", fmt.Sprint(r))

			d.present(ctx, notify.FailureReport(trigger.AlarmID, trigger.Lines))
		}

		// Step 5: keep recurring alarms armed and retire one-time alarms,
		// also after a recovered panic.
		if fired != nil {
			d.finish(ctx, fired, trigger)
		}
	}()

	// Step 1: the trigger must carry a stored, enabled alarm and lines.
	if trigger.AlarmID == "" || len(trigger.Lines) == 0 {
		metrics.IncDispatch(metrics.ResultSkipped)
		logger.WarnKV(ctx, "Malformed trigger dropped", "error", errMalformedTrigger)

		return
	}

	a, err := d.alarms.Get(ctx, trigger.AlarmID)
	if err != nil {
		metrics.IncDispatch(metrics.ResultSkipped)

		if errors.Is(err, alarms.ErrNotFound) {
			logger.WarnKV(ctx, "Trigger for unknown alarm dropped")
		} else {
			logger.ErrorKV(ctx, "Resolve alarm failed", "error", err)
		}

		return
	}

	if !a.Enabled {
		metrics.IncDispatch(metrics.ResultSkipped)
		logger.InfoKV(ctx, "Trigger for disabled alarm dropped")

		return
	}

	fired = a

	// Step 2: wait for the first terminal result.
	result, err := d.awaitResult(ctx)
	if err != nil {
		metrics.IncDispatch(metrics.ResultTimeout)
		logger.WarnKV(ctx, "Line statuses unavailable", "error", err)
	}

	// Steps 3 and 4: build and present the notification.
	req := d.report(a, result)
	if err == nil {
		metrics.IncDispatch(outcomeOf(req))
	}

	d.present(ctx, req)
}

// Preview runs the notification part of a dispatch for the stored alarm id
// without rescheduling or disabling it, and returns what was presented.
func (d *Dispatcher) Preview(ctx context.Context, id string) (notify.Request, error) {
	ctx = logger.WithKV(logger.WithName(ctx, "dispatcher"), "alarm_id", id)

	a, err := d.alarms.Get(ctx, id)
	if err != nil {
		return notify.Request{}, fmt.Errorf("resolve alarm: %w", err)
	}

	result, err := d.awaitResult(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Line statuses unavailable", "error", err)
	}

	req := d.report(a, result)
	d.present(ctx, req)

	return req, nil
}

// awaitResult returns the first non-Loading result. A sequence that ends or
// outlives the timeout yields an Error result together with a non-nil error.
func (d *Dispatcher) awaitResult(ctx context.Context) (line.Result, error) {
	waitCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	results := d.statuses.Statuses(waitCtx)

	for {
		select {
		case <-waitCtx.Done():
			return line.Failure(errNoTerminalResult.Error(), 0),
				fmt.Errorf("%w: %w", errNoTerminalResult, waitCtx.Err())
		case r, ok := <-results:
			if !ok {
				return line.Failure(errNoTerminalResult.Error(), 0), errNoTerminalResult
			}

			if r.Terminal() {
				return r, nil
			}
		}
	}
}

// report builds the notification for a terminal result.
func (d *Dispatcher) report(a *alarm.Alarm, result line.Result) notify.Request {
	if result.Kind != line.KindSuccess {
		return notify.FailureReport(a.ID, a.Lines)
	}

	monitored := line.Filter(result.Lines, a.Lines)
	if len(monitored) == 0 {
		return notify.MissingLinesReport(a.ID, a.Lines)
	}

	return notify.StatusReport(a.ID, monitored)
}

// present hands req to the presenter, logging failures.
func (d *Dispatcher) present(ctx context.Context, req notify.Request) {
	if err := d.presenter.Present(ctx, req); err != nil {
		logger.ErrorKV(ctx, "Present notification failed", "error", err, "title", req.Title)
	}
}

// finish reschedules a recurring enabled alarm strictly after the fired
// instant, and disables a one-time alarm without deleting it.
// It re-reads the alarm under its write lock: an alarm written since the
// trigger was resolved keeps the registration that write left.
func (d *Dispatcher) finish(ctx context.Context, fired *alarm.Alarm, trigger scheduler.Trigger) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncDispatch(outcomePanic)
			logger.ErrorKV(ctx, "Finish dispatch panicked", "panic", fmt.Sprint(r))
		}
	}()

	unlock := d.locker.LockAlarm(fired.ID)
	defer unlock()

	a, err := d.alarms.Get(ctx, fired.ID)

	switch {
	case errors.Is(err, alarms.ErrNotFound):
		d.scheduler.Cancel(ctx, fired.ID)
		logger.InfoKV(ctx, "Alarm deleted during dispatch")

		return
	case err != nil:
		logger.ErrorKV(ctx, "Re-read alarm failed, using the fired copy", "error", err)

		a = fired
	case !a.ModifiedAt.Equal(fired.ModifiedAt):
		logger.InfoKV(ctx, "Alarm changed during dispatch, keeping its current registration")

		return
	}

	switch {
	case a.IsRecurring() && a.Enabled:
		at, ok := d.scheduler.Reschedule(ctx, a, trigger.At)
		if ok {
			logger.InfoKV(ctx, "Alarm rescheduled", "at", at.Format(time.RFC3339))
		}
	case a.IsOneTime():
		d.scheduler.Cancel(ctx, a.ID)

		if err = d.alarms.SetEnabled(ctx, a.ID, false, d.now()); err != nil {
			logger.ErrorKV(ctx, "Disable one-time alarm failed", "error", err)

			return
		}

		logger.InfoKV(ctx, "One-time alarm disabled")
	default:
		d.scheduler.Cancel(ctx, a.ID)
	}
}

// outcomeOf labels a presented request for metrics.
func outcomeOf(req notify.Request) string {
	switch {
	case req.Kind == notify.KindError:
		return metrics.ResultError
	case req.HasDisruption():
		return outcomeDisrupted
	default:
		return metrics.ResultSuccess
	}
}
