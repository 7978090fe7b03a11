package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/commute-alarm/internal/metrics"
)

var (
	// ErrExactDenied is returned by SetExact when precise wake-ups are not permitted.
	ErrExactDenied = errors.New("exact wake-ups are not permitted")
	// ErrCapacity is returned when the platform cannot hold another registration.
	ErrCapacity = errors.New("timer registration capacity exhausted")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("timer platform closed")
)

// DefaultWallClockCheck is how often registrations are compared against the wall clock.
const DefaultWallClockCheck = 30 * time.Second

// Trigger is the payload delivered when a registration fires.
type Trigger struct {
	// AlarmID identifies the alarm that fired.
	AlarmID string `json:"alarm_id"`
	// Lines are the monitored line ids at registration time.
	Lines []string `json:"lines"`
	// OneTime reports whether the alarm had no weekdays at registration time.
	OneTime bool `json:"one_time"`
	// At is the instant the registration was requested for.
	At time.Time `json:"at"`
}

// Handler receives fired triggers.
type Handler func(ctx context.Context, trigger Trigger)

// Platform holds wake-up registrations keyed by id.
type Platform interface {
	// SetExact registers a precise wake-up, replacing any registration for id.
	SetExact(id string, at time.Time, trigger Trigger) error
	// SetInexact registers a best-effort wake-up, replacing any registration for id.
	SetInexact(id string, at time.Time, trigger Trigger) error
	// Cancel removes the registration for id, if any.
	Cancel(id string)
}

// registration is one armed timer.
type registration struct {
	timer   *time.Timer
	at      time.Time
	trigger Trigger
	exact   bool
}

// TimerPlatform implements Platform with in-process timers. Each fired
// registration runs the handler on its own goroutine.
type TimerPlatform struct {
	// ctx is passed to the handler; it is detached from cancellation so a
	// dispatch in progress completes during shutdown.
	ctx context.Context
	// handler receives fired triggers.
	handler Handler
	// precise reports whether SetExact is permitted.
	precise bool
	// maxRegistrations bounds live registrations, zero means unbounded.
	maxRegistrations int
	// now returns the wall-clock time registrations are compared against.
	now func() time.Time
	// checkInterval is the period of the wall-clock check, zero disables it.
	checkInterval time.Duration
	// stop ends the wall-clock check.
	stop chan struct{}

	// mu protects registrations, closed and handler.
	mu            sync.Mutex
	registrations map[string]*registration
	closed        bool
	// running tracks handlers in progress.
	running sync.WaitGroup
}

// PlatformOption configures a TimerPlatform.
type PlatformOption func(*TimerPlatform)

// WithPrecise controls whether exact wake-ups are permitted.
func WithPrecise(precise bool) PlatformOption {
	return func(p *TimerPlatform) {
		p.precise = precise
	}
}

// WithMaxRegistrations bounds the number of live registrations.
func WithMaxRegistrations(n int) PlatformOption {
	return func(p *TimerPlatform) {
		if n > 0 {
			p.maxRegistrations = n
		}
	}
}

// WithPlatformClock replaces time.Now for wall-clock comparisons.
func WithPlatformClock(now func() time.Time) PlatformOption {
	return func(p *TimerPlatform) {
		if now != nil {
			p.now = now
		}
	}
}

// WithWallClockCheck sets the period of the wall-clock check.
// A non-positive interval disables it.
func WithWallClockCheck(interval time.Duration) PlatformOption {
	return func(p *TimerPlatform) {
		p.checkInterval = max(interval, 0)
	}
}

// NewTimerPlatform returns a platform delivering triggers to handler.
// Timers measure monotonic time, which stops while the host is suspended, so
// the platform also fires registrations whose wall-clock instant has passed.
func NewTimerPlatform(ctx context.Context, handler Handler, opts ...PlatformOption) *TimerPlatform {
	p := &TimerPlatform{
		ctx:           context.WithoutCancel(ctx),
		handler:       handler,
		precise:       true,
		now:           time.Now,
		checkInterval: DefaultWallClockCheck,
		stop:          make(chan struct{}),
		registrations: make(map[string]*registration),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.checkInterval > 0 {
		go p.watchWallClock()
	}

	return p
}

// SetHandler replaces the handler for registrations that fire afterwards.
func (p *TimerPlatform) SetHandler(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.handler = handler
}

// SetExact registers a wake-up at exactly at.
func (p *TimerPlatform) SetExact(id string, at time.Time, trigger Trigger) error {
	if !p.precise {
		return ErrExactDenied
	}

	return p.set(id, at, trigger, true)
}

// SetInexact registers a wake-up at the first whole minute not before at.
func (p *TimerPlatform) SetInexact(id string, at time.Time, trigger Trigger) error {
	return p.set(id, alignToMinute(at), trigger, false)
}

// Cancel removes the registration for id.
func (p *TimerPlatform) Cancel(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if reg, ok := p.registrations[id]; ok {
		reg.timer.Stop()
		delete(p.registrations, id)
	}

	metrics.SetRegistrations(len(p.registrations))
}

// Pending returns the instant registered for id.
func (p *TimerPlatform) Pending(id string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reg, ok := p.registrations[id]
	if !ok {
		return time.Time{}, false
	}

	return reg.at, true
}

// Len returns the number of live registrations.
func (p *TimerPlatform) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.registrations)
}

// Close stops every registration and waits for running handlers to return.
func (p *TimerPlatform) Close() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return
	}

	p.closed = true
	close(p.stop)

	for id, reg := range p.registrations {
		reg.timer.Stop()
		delete(p.registrations, id)
	}

	p.mu.Unlock()

	metrics.SetRegistrations(0)
	p.running.Wait()
}

// set arms a timer for id, replacing any previous one.
func (p *TimerPlatform) set(id string, at time.Time, trigger Trigger, exact bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	previous, replacing := p.registrations[id]
	if !replacing && p.maxRegistrations > 0 && len(p.registrations) >= p.maxRegistrations {
		return ErrCapacity
	}

	if replacing {
		previous.timer.Stop()
	}

	reg := &registration{at: at, trigger: trigger, exact: exact}
	reg.timer = time.AfterFunc(at.Sub(p.now()), func() {
		p.fire(id, reg)
	})

	p.registrations[id] = reg
	metrics.SetRegistrations(len(p.registrations))

	return nil
}

// watchWallClock periodically fires overdue registrations until Close.
func (p *TimerPlatform) watchWallClock() {
	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.fireOverdue()
		}
	}
}

// fireOverdue fires every registration whose instant is not after the wall
// clock but whose timer has not expired yet.
func (p *TimerPlatform) fireOverdue() {
	// Round(0) drops the monotonic reading so the comparison uses wall time.
	now := p.now().Round(0)

	p.mu.Lock()

	overdue := make(map[string]*registration)

	for id, reg := range p.registrations {
		// A timer that cannot be stopped has already started its own fire.
		if !now.Before(reg.at) && reg.timer.Stop() {
			overdue[id] = reg
		}
	}

	p.mu.Unlock()

	for id, reg := range overdue {
		go p.fire(id, reg)
	}
}

// fire delivers reg if it is still the live registration for id.
func (p *TimerPlatform) fire(id string, reg *registration) {
	p.mu.Lock()

	// A replaced or canceled registration whose timer could not be stopped in time.
	if p.closed || p.registrations[id] != reg {
		p.mu.Unlock()

		return
	}

	delete(p.registrations, id)
	metrics.SetRegistrations(len(p.registrations))

	handler := p.handler

	p.running.Add(1)
	p.mu.Unlock()

	defer p.running.Done()

	if handler != nil {
		handler(p.ctx, reg.trigger)
	}
}

// alignToMinute rounds at up to a whole minute.
func alignToMinute(at time.Time) time.Time {
	aligned := at.Truncate(time.Minute)
	if aligned.Before(at) {
		aligned = aligned.Add(time.Minute)
	}

	return aligned
}
