package alarms

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	alarmrepo "github.com/oshokin/commute-alarm/internal/repository/alarms"
)

// fakeScheduler tracks which ids are registered.
type fakeScheduler struct {
	mu         sync.Mutex
	registered map[string]alarm.TimeOfDay
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{registered: make(map[string]alarm.TimeOfDay)}
}

func (s *fakeScheduler) Schedule(_ context.Context, a *alarm.Alarm) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registered[a.ID] = a.Time

	return time.Now(), true
}

func (s *fakeScheduler) Cancel(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.registered, id)
}

func (s *fakeScheduler) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.registered[id]

	return ok
}

var fixedNow = time.Date(2026, time.October, 15, 6, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *fakeScheduler, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), alarmrepo.DefaultFilename)

	repo, err := alarmrepo.NewFileRepository(path)
	require.NoError(t, err)

	sched := newFakeScheduler()

	return New(repo, sched, WithClock(func() time.Time { return fixedNow })), sched, path
}

func draft(hour int, lines ...string) Draft {
	return Draft{Time: alarm.TimeOfDay{Hour: hour}, Lines: lines, Enabled: true}
}

// TestCreate stores, normalizes and schedules a new alarm.
func TestCreate(t *testing.T) {
	t.Parallel()

	svc, sched, _ := newService(t)

	a, err := svc.Create(t.Context(), draft(8, " Victoria", "central", "victoria"))
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.Equal(t, []string{"central", "victoria"}, a.Lines)
	require.Equal(t, fixedNow, a.CreatedAt)
	require.True(t, sched.has(a.ID))

	next, ok := svc.NextTrigger(a)
	require.True(t, ok)
	require.Equal(t, time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC), next)

	disabled := draft(9, "central")
	disabled.Enabled = false

	b, err := svc.Create(t.Context(), disabled)
	require.NoError(t, err)
	require.False(t, sched.has(b.ID))
}

// TestCreate_Invalid rejects drafts without lines or with a bad time.
func TestCreate_Invalid(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)

	_, err := svc.Create(t.Context(), draft(8))
	require.ErrorIs(t, err, alarm.ErrNoLines)

	_, err = svc.Create(t.Context(), draft(25, "central"))
	require.ErrorIs(t, err, alarm.ErrInvalidTime)

	n, err := svc.Count(t.Context())
	require.NoError(t, err)
	require.Zero(t, n)
}

// TestCreate_Limit fails the eleventh alarm without touching stored state.
func TestCreate_Limit(t *testing.T) {
	t.Parallel()

	svc, sched, path := newService(t)

	for i := range alarm.MaxAlarms {
		_, err := svc.Create(t.Context(), draft(i, "central"))
		require.NoError(t, err)
	}

	can, err := svc.CanCreateMore(t.Context())
	require.NoError(t, err)
	require.False(t, can)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = svc.Create(t.Context(), draft(20, "central"))
	require.ErrorIs(t, err, ErrLimitReached)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)

	n, err := svc.Count(t.Context())
	require.NoError(t, err)
	require.Equal(t, alarm.MaxAlarms, n)
	require.Len(t, sched.registered, alarm.MaxAlarms)
}

// TestUpdate reschedules enabled alarms and cancels disabled ones.
func TestUpdate(t *testing.T) {
	t.Parallel()

	svc, sched, _ := newService(t)

	a, err := svc.Create(t.Context(), draft(8, "central"))
	require.NoError(t, err)

	changed := draft(9, "jubilee")
	changed.Days = alarm.WorkingDays

	updated, err := svc.Update(t.Context(), a.ID, changed)
	require.NoError(t, err)
	require.Equal(t, a.CreatedAt, updated.CreatedAt)
	require.Equal(t, []string{"jubilee"}, updated.Lines)
	require.Equal(t, alarm.TimeOfDay{Hour: 9}, sched.registered[a.ID])

	changed.Enabled = false
	_, err = svc.Update(t.Context(), a.ID, changed)
	require.NoError(t, err)
	require.False(t, sched.has(a.ID))

	_, err = svc.Update(t.Context(), "missing", changed)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSetEnabledAndDelete toggles registration and removes the alarm.
func TestSetEnabledAndDelete(t *testing.T) {
	t.Parallel()

	svc, sched, _ := newService(t)

	a, err := svc.Create(t.Context(), draft(8, "central"))
	require.NoError(t, err)

	off, err := svc.SetEnabled(t.Context(), a.ID, false)
	require.NoError(t, err)
	require.False(t, off.Enabled)
	require.False(t, sched.has(a.ID))

	on, err := svc.SetEnabled(t.Context(), a.ID, true)
	require.NoError(t, err)
	require.True(t, on.Enabled)
	require.True(t, sched.has(a.ID))

	require.NoError(t, svc.Delete(t.Context(), a.ID))
	require.False(t, sched.has(a.ID))

	_, err = svc.Get(t.Context(), a.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(t.Context(), a.ID), ErrNotFound)

	_, err = svc.SetEnabled(t.Context(), a.ID, true)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestKeyedMutex serializes holders of the same key and frees idle keys.
func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	k := newKeyedMutex()

	var (
		wg      sync.WaitGroup
		counter int
	)

	for range 50 {
		wg.Go(func() {
			unlock := k.Lock("a")
			defer unlock()

			counter++
		})
	}

	wg.Wait()

	require.Equal(t, 50, counter)
	require.Empty(t, k.locks)
}
