package alarm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/domain/line"
	"github.com/oshokin/commute-alarm/internal/notify"
	"github.com/oshokin/commute-alarm/internal/repository/alarms"
	alarmsvc "github.com/oshokin/commute-alarm/internal/service/alarms"
)

// nopScheduler accepts every registration.
type nopScheduler struct{}

func (nopScheduler) Schedule(context.Context, *domain.Alarm) (time.Time, bool) { return time.Time{}, true }

func (nopScheduler) Cancel(context.Context, string) {}

// fakePreviewer returns a fixed notification.
type fakePreviewer struct{}

func (fakePreviewer) Preview(_ context.Context, id string) (notify.Request, error) {
	if id == "missing" {
		return notify.Request{}, alarms.ErrNotFound
	}

	return notify.FailureReport(id, []string{"central"}), nil
}

// fakeLines serves a fixed cache and result sequence.
type fakeLines struct {
	cached  []line.Cached
	results []line.Result
}

func (f fakeLines) Statuses(context.Context) <-chan line.Result {
	ch := make(chan line.Result, len(f.results))
	for _, r := range f.results {
		ch <- r
	}

	close(ch)

	return ch
}

func (f fakeLines) Cached(context.Context) ([]line.Cached, error) { return f.cached, nil }

func (f fakeLines) LastUpdateTime(context.Context) (time.Time, bool) {
	if len(f.cached) == 0 {
		return time.Time{}, false
	}

	return f.cached[0].UpdatedAt, true
}

var fixedNow = time.Date(2026, time.October, 15, 6, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, lines fakeLines) *Server {
	t.Helper()

	repo, err := alarms.NewFileRepository(filepath.Join(t.TempDir(), alarms.DefaultFilename))
	require.NoError(t, err)

	svc := alarmsvc.New(repo, nopScheduler{}, alarmsvc.WithClock(func() time.Time { return fixedNow }))

	return NewServer(svc, fakePreviewer{}, lines)
}

func mustStruct(t *testing.T, v any) *structpb.Struct {
	t.Helper()

	s, err := EncodeStruct(v)
	require.NoError(t, err)

	return s
}

// TestServer_AlarmLifecycle creates, lists, updates, toggles and deletes an alarm.
func TestServer_AlarmLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, fakeLines{})
	ctx := t.Context()

	created, err := s.CreateAlarm(ctx, mustStruct(t, map[string]any{
		"time":  "07:30",
		"days":  []string{"mon", "wed"},
		"lines": []string{"central"},
	}))
	require.NoError(t, err)

	var view AlarmView
	require.NoError(t, DecodeStruct(created, &view))
	require.NotEmpty(t, view.ID)
	require.Equal(t, "07:30", view.Time)
	require.Equal(t, "7:30 AM", view.DisplayTime)
	require.Equal(t, "Mon, Wed", view.DisplayDays)
	require.True(t, view.Enabled)
	require.NotNil(t, view.NextTrigger)
	// 2026-10-15 is a Thursday; the next Monday is the 19th.
	require.Equal(t, time.Date(2026, time.October, 19, 7, 30, 0, 0, time.UTC), view.NextTrigger.UTC())

	listed, err := s.ListAlarms(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	var list AlarmList
	require.NoError(t, DecodeStruct(listed, &list))
	require.Len(t, list.Alarms, 1)
	require.True(t, list.CanCreateMore)

	updated, err := s.UpdateAlarm(ctx, mustStruct(t, map[string]any{
		"id":      view.ID,
		"time":    "08:15",
		"lines":   []string{"victoria"},
		"enabled": false,
	}))
	require.NoError(t, err)
	require.NoError(t, DecodeStruct(updated, &view))
	require.Equal(t, "08:15", view.Time)
	require.Equal(t, "One time", view.DisplayDays)
	require.False(t, view.Enabled)
	require.Nil(t, view.NextTrigger)

	toggled, err := s.SetAlarmEnabled(ctx, mustStruct(t, EnabledRequest{ID: view.ID, Enabled: true}))
	require.NoError(t, err)
	require.NoError(t, DecodeStruct(toggled, &view))
	require.True(t, view.Enabled)

	_, err = s.DeleteAlarm(ctx, wrapperspb.String(view.ID))
	require.NoError(t, err)

	_, err = s.GetAlarm(ctx, wrapperspb.String(view.ID))
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestServer_Validation maps bad input and domain errors to status codes.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, fakeLines{})
	ctx := t.Context()

	_, err := s.CreateAlarm(ctx, mustStruct(t, map[string]any{"time": "25:00", "lines": []string{"central"}}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.CreateAlarm(ctx, mustStruct(t, map[string]any{"time": "07:00"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.CreateAlarm(ctx, mustStruct(t, map[string]any{"time": "07:00", "days": []string{"funday"}}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.UpdateAlarm(ctx, mustStruct(t, map[string]any{"time": "07:00", "lines": []string{"central"}}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.GetAlarm(ctx, wrapperspb.String(""))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.DeleteAlarm(ctx, wrapperspb.String("missing"))
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.TriggerAlarm(ctx, wrapperspb.String("missing"))
	require.Equal(t, codes.NotFound, status.Code(err))

	require.Equal(t, codes.Internal, status.Code(toStatus(ctx, errors.New("disk on fire"))))
}

// TestServer_Limit reports ResourceExhausted for the eleventh alarm.
func TestServer_Limit(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, fakeLines{})

	for i := range domain.MaxAlarms {
		_, err := s.CreateAlarm(t.Context(), mustStruct(t, map[string]any{
			"time":  domain.TimeOfDay{Hour: i}.String(),
			"lines": []string{"central"},
		}))
		require.NoError(t, err)
	}

	_, err := s.CreateAlarm(t.Context(), mustStruct(t, map[string]any{"time": "23:00", "lines": []string{"central"}}))
	require.Equal(t, codes.ResourceExhausted, status.Code(err))
}

// TestServer_TriggerAlarm returns the presented notification.
func TestServer_TriggerAlarm(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, fakeLines{})

	resp, err := s.TriggerAlarm(t.Context(), wrapperspb.String("a-1"))
	require.NoError(t, err)

	var req notify.Request
	require.NoError(t, DecodeStruct(resp, &req))
	require.Equal(t, "a-1", req.AlarmID)
	require.Equal(t, notify.TitleFailed, req.Title)
}

// TestServer_LineStatuses serves the cache and the final fetch result.
func TestServer_LineStatuses(t *testing.T) {
	t.Parallel()

	cached := line.Cached{
		Status:    line.Status{ID: "central", Name: "Central", Severity: 10},
		UpdatedAt: fixedNow,
		ExpiresAt: fixedNow.Add(10 * time.Minute),
	}

	s := newTestServer(t, fakeLines{
		cached: []line.Cached{cached},
		results: []line.Result{
			line.Loading(),
			line.Success([]line.Status{cached.Status}),
			line.Success([]line.Status{{ID: "central", Name: "Central", Severity: 6}}),
		},
	})

	resp, err := s.GetLineStatuses(t.Context(), new(emptypb.Empty))
	require.NoError(t, err)

	var snapshot LineSnapshot
	require.NoError(t, DecodeStruct(resp, &snapshot))
	require.Len(t, snapshot.Lines, 1)
	require.NotNil(t, snapshot.LastUpdated)
	require.True(t, snapshot.LastUpdated.Equal(fixedNow))

	resp, err = s.RefreshLineStatuses(t.Context(), new(emptypb.Empty))
	require.NoError(t, err)

	var result SyncResult
	require.NoError(t, DecodeStruct(resp, &result))
	require.Equal(t, "success", result.Kind)
	require.Equal(t, 6, result.Lines[0].Severity)
}
