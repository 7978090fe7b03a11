package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	grpcapi "github.com/oshokin/commute-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/commute-alarm/internal/domain/line"
	"github.com/oshokin/commute-alarm/internal/metrics"
)

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

var updatedAt = time.Date(2026, time.October, 15, 7, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	central := line.Status{ID: "central", Name: "Central", Severity: 10}

	srv := httptest.NewServer(NewHandler(fakeLines{
		cached: []line.Cached{{Status: central, UpdatedAt: updatedAt, ExpiresAt: updatedAt.Add(time.Minute)}},
		results: []line.Result{
			line.Loading(),
			line.Success([]line.Status{central}),
			line.Failure("Service temporarily unavailable", http.StatusServiceUnavailable),
		},
	}))
	t.Cleanup(srv.Close)

	return srv
}

// TestHandleLines returns the cached snapshot.
func TestHandleLines(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/lines") //nolint:noctx // Test request.
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot grpcapi.LineSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	require.Len(t, snapshot.Lines, 1)
	require.Equal(t, "central", snapshot.Lines[0].ID)
	require.True(t, snapshot.LastUpdated.Equal(updatedAt))
}

// TestHandleLinesWS streams every result then closes normally.
func TestHandleLinesWS(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/lines", nil)
	require.NoError(t, err)

	defer resp.Body.Close()
	defer conn.Close()

	var kinds []string

	for {
		var result grpcapi.SyncResult
		if err = conn.ReadJSON(&result); err != nil {
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

			break
		}

		kinds = append(kinds, result.Kind)
	}

	require.Equal(t, []string{"loading", "success", "error"}, kinds)
}

// TestMetricsEndpoint exposes the registered collectors.
func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	metrics.Init()
	metrics.IncDispatch(metrics.ResultSuccess)

	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics") //nolint:noctx // Test request.
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "commute_alarm_dispatch_total")
}

// TestSameOrigin rejects cross-origin websocket upgrades.
func TestSameOrigin(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "http://alarm.local/ws/lines", nil)
	require.True(t, sameOrigin(r))

	r.Header.Set("Origin", "http://alarm.local")
	require.True(t, sameOrigin(r))

	r.Header.Set("Origin", "http://evil.local")
	require.False(t, sameOrigin(r))
}
