package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

// countingRefresher counts refreshes.
type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(context.Context) {
	r.calls.Add(1)
}

// TestRun refreshes once per interval until canceled.
func TestRun(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		refresher := new(countingRefresher)
		done := make(chan struct{})

		go func() {
			defer close(done)

			Run(ctx, refresher, Options{Interval: time.Minute, Immediate: true})
		}()

		synctest.Wait()
		require.Equal(t, int32(1), refresher.calls.Load())

		time.Sleep(3*time.Minute + time.Second)
		synctest.Wait()
		require.Equal(t, int32(4), refresher.calls.Load())

		cancel()
		<-done

		require.Equal(t, int32(4), refresher.calls.Load())
	})
}

// TestRun_Disabled returns immediately for a non-positive interval.
func TestRun_Disabled(t *testing.T) {
	t.Parallel()

	refresher := new(countingRefresher)
	Run(t.Context(), refresher, Options{Immediate: true})

	require.Zero(t, refresher.calls.Load())
}
