package feed

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/oshokin/commute-alarm/internal/metrics"
)

const (
	// DefaultMaxRetries is the number of extra attempts after the first one.
	DefaultMaxRetries = 3

	// baseRetryDelay is the delay before the first retry.
	baseRetryDelay = 2 * time.Second
	// maxRetryDelay caps a single delay.
	maxRetryDelay = 16 * time.Second

	// maxDrainSize bounds how much of a failed body is read before closing it.
	maxDrainSize = 64 << 10
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryTransport retries requests answered with 429, 500, 502, 503 or 504.
// Transport errors and every other status are returned as-is.
type RetryTransport struct {
	// next performs the actual round trips.
	next http.RoundTripper
	// maxRetries bounds the number of extra attempts.
	maxRetries int
	// sleep waits between attempts.
	sleep Sleeper
}

// RetryOption configures a RetryTransport.
type RetryOption func(*RetryTransport)

// WithSleeper replaces the wait between attempts.
func WithSleeper(sleep Sleeper) RetryOption {
	return func(t *RetryTransport) {
		if sleep != nil {
			t.sleep = sleep
		}
	}
}

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) RetryOption {
	return func(t *RetryTransport) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// NewRetryTransport wraps next, or http.DefaultTransport when next is nil.
func NewRetryTransport(next http.RoundTripper, opts ...RetryOption) *RetryTransport {
	if next == nil {
		next = http.DefaultTransport
	}

	t := &RetryTransport{
		next:       next,
		maxRetries: DefaultMaxRetries,
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// RetryDelay returns the wait before retry number n, counted from 1: 2s, 4s, 8s, then 16s.
func RetryDelay(n int) time.Duration {
	if n < 1 {
		n = 1
	}

	if n > 4 {
		return maxRetryDelay
	}

	return min(baseRetryDelay<<(n-1), maxRetryDelay)
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	resp, err := t.next.RoundTrip(req)

	for retry := 1; ; retry++ {
		if err != nil {
			metrics.IncFeedRequest(0)

			return nil, err
		}

		metrics.IncFeedRequest(resp.StatusCode)

		if !isRetryable(resp.StatusCode) || retry > t.maxRetries {
			return resp, nil
		}

		discard(resp)
		metrics.IncFeedRetry(resp.StatusCode)

		if err = t.sleep(ctx, RetryDelay(retry)); err != nil {
			return nil, err
		}

		attempt, cloneErr := rewind(req)
		if cloneErr != nil {
			return nil, cloneErr
		}

		resp, err = t.next.RoundTrip(attempt)
	}
}

// isRetryable reports whether code is a transient server or backpressure status.
func isRetryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// discard drains and closes a response that will not be returned.
func discard(resp *http.Response) {
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrainSize)
	_ = resp.Body.Close()
}

// rewind returns a request whose body can be sent again.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}

	if req.GetBody == nil {
		return req, nil
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}

	clone := req.Clone(req.Context())
	clone.Body = body

	return clone, nil
}

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
