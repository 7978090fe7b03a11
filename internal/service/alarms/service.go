package alarms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/logger"
	alarmrepo "github.com/oshokin/commute-alarm/internal/repository/alarms"
	"github.com/oshokin/commute-alarm/internal/schedule"
)

var (
	// ErrLimitReached is returned by Create when alarm.MaxAlarms alarms exist.
	ErrLimitReached = alarmrepo.ErrLimitReached
	// ErrNotFound is returned for an unknown alarm id.
	ErrNotFound = alarmrepo.ErrNotFound
)

// Scheduler registers and cancels alarm wake-ups.
type Scheduler interface {
	Schedule(ctx context.Context, a *alarm.Alarm) (time.Time, bool)
	Cancel(ctx context.Context, id string)
}

// Draft holds the user-editable fields of an alarm.
type Draft struct {
	// Time is the wall-clock trigger time.
	Time alarm.TimeOfDay
	// Days selects the weekdays; empty means one-time.
	Days alarm.Weekdays
	// Lines are the monitored line ids.
	Lines []string
	// Enabled reports whether the alarm should be scheduled.
	Enabled bool
}

// Service orchestrates alarm persistence and scheduling.
type Service struct {
	// repo stores alarm configurations.
	repo alarmrepo.Repository
	// scheduler keeps registrations in step with stored alarms.
	scheduler Scheduler
	// now returns the current time.
	now func() time.Time
	// locks serializes writes per alarm id.
	locks *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a service.
func New(repo alarmrepo.Repository, scheduler Scheduler, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		scheduler: scheduler,
		now:       time.Now,
		locks:     newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// List returns every alarm ordered by time of day.
func (s *Service) List(ctx context.Context) ([]*alarm.Alarm, error) {
	return s.repo.List(ctx)
}

// Get returns the alarm with id.
func (s *Service) Get(ctx context.Context, id string) (*alarm.Alarm, error) {
	return s.repo.Get(ctx, id)
}

// Count returns the number of stored alarms.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// CanCreateMore reports whether another alarm fits under the limit.
func (s *Service) CanCreateMore(ctx context.Context) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}

	return n < alarm.MaxAlarms, nil
}

// NextTrigger returns the next trigger instant of a from now.
func (s *Service) NextTrigger(a *alarm.Alarm) (time.Time, bool) {
	return schedule.NextTrigger(a, s.now())
}

// Create stores a new alarm and schedules it when enabled.
// Nothing is stored when the limit is reached or the draft is invalid.
func (s *Service) Create(ctx context.Context, draft Draft) (*alarm.Alarm, error) {
	a := alarm.New(draft.Time, draft.Days, draft.Lines, s.now())
	a.Enabled = draft.Enabled

	if err := a.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(a.ID)
	defer unlock()

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create alarm: %w", err)
	}

	s.sync(ctx, a)

	return a, nil
}

// Update replaces the editable fields of the alarm with id.
func (s *Service) Update(ctx context.Context, id string, draft Draft) (*alarm.Alarm, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	updated.Time = draft.Time
	updated.Days = draft.Days
	updated.Lines = alarm.NormalizeLines(draft.Lines)
	updated.Enabled = draft.Enabled
	updated.ModifiedAt = s.now()

	if err = updated.Validate(); err != nil {
		return nil, err
	}

	if err = s.repo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("update alarm: %w", err)
	}

	s.sync(ctx, updated)

	return updated, nil
}

// Delete cancels the registration of the alarm with id and removes it.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx = logger.WithKV(ctx, "alarm_id", id)

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	s.scheduler.Cancel(ctx, id)

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	logger.InfoKV(logger.WithName(ctx, "alarms"), "Alarm deleted")

	return nil
}

// SetEnabled persists the enabled flag and then schedules or cancels the alarm.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (*alarm.Alarm, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.repo.SetEnabled(ctx, id, enabled, s.now()); err != nil {
		if errors.Is(err, alarmrepo.ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("set alarm enabled: %w", err)
	}

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.sync(ctx, a)

	return a, nil
}

// LockAlarm acquires the write lock every mutation of id holds.
// The returned function releases it.
func (s *Service) LockAlarm(id string) func() {
	return s.locks.Lock(id)
}

// sync schedules an enabled alarm and cancels a disabled one.
func (s *Service) sync(ctx context.Context, a *alarm.Alarm) {
	ctx = logger.WithKV(ctx, "alarm_id", a.ID)

	if a.Enabled {
		s.scheduler.Schedule(ctx, a)

		return
	}

	s.scheduler.Cancel(ctx, a.ID)
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex

	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()

	l, ok := k.locks[key]
	if !ok {
		l = new(keyedLock)
		k.locks[key] = l
	}

	l.refs++
	k.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.mu.Lock()
		defer k.mu.Unlock()

		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
	}
}
