package reconciler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
)

// staticLister returns a fixed alarm list.
type staticLister struct {
	alarms []*alarm.Alarm
	err    error
}

func (l staticLister) List(context.Context) ([]*alarm.Alarm, error) {
	return l.alarms, l.err
}

// flakyScheduler panics or fails for selected ids and records the rest.
type flakyScheduler struct {
	mu        sync.Mutex
	panicFor  string
	failFor   string
	scheduled []string
}

func (s *flakyScheduler) Schedule(_ context.Context, a *alarm.Alarm) (time.Time, bool) {
	switch a.ID {
	case s.panicFor:
		panic("platform crashed")
	case s.failFor:
		return time.Time{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduled = append(s.scheduled, a.ID)

	return time.Now(), true
}

func enabled(id string, on bool) *alarm.Alarm {
	return &alarm.Alarm{ID: id, Time: alarm.TimeOfDay{Hour: 8}, Lines: []string{"central"}, Enabled: on}
}

// TestReconcileOnStartup schedules enabled alarms and isolates failures.
func TestReconcileOnStartup(t *testing.T) {
	t.Parallel()

	sched := &flakyScheduler{panicFor: "b", failFor: "c"}
	r := New(staticLister{alarms: []*alarm.Alarm{
		enabled("a", true),
		enabled("b", true),
		enabled("c", true),
		enabled("d", false),
		enabled("e", true),
	}}, sched)

	report, err := r.ReconcileOnStartup(t.Context())
	require.NoError(t, err)

	require.Equal(t, []string{"a", "e"}, report.Scheduled)
	require.Equal(t, []string{"b", "c"}, report.Failed)
	require.False(t, slices.Contains(sched.scheduled, "d"))
}

// TestReconcileOnStartup_ListError returns the read failure.
func TestReconcileOnStartup_ListError(t *testing.T) {
	t.Parallel()

	r := New(staticLister{err: errors.New("disk gone")}, new(flakyScheduler))

	_, err := r.ReconcileOnStartup(t.Context())
	require.Error(t, err)
}
