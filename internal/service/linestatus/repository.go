package linestatus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/line"
	"github.com/oshokin/commute-alarm/internal/feed"
	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/metrics"
	"github.com/oshokin/commute-alarm/internal/repository/linecache"
)

// User-facing error messages of the Error result.
const (
	MessageEmptyResponse      = "empty response"
	MessageConfiguration      = "Configuration error: the feed rejected the app key"
	MessageRateLimited        = "Too many requests, please try again later"
	MessageServiceUnavailable = "Service temporarily unavailable"
	MessageFetchFailed        = "Unable to fetch line statuses"
	MessageNoConnection       = "No connection to the status feed"
)

// maxEmissions is the longest sequence one Statuses call produces.
const maxEmissions = 3

// Fetcher performs one logical fetch of every line status.
type Fetcher interface {
	FetchLines(ctx context.Context) ([]line.Status, error)
}

// Repository reconciles the local cache with the remote feed.
type Repository struct {
	// fetcher reaches the remote feed.
	fetcher Fetcher
	// cache is the local store written through on every successful fetch.
	cache linecache.Store
	// ttl is the lifetime of a cached status.
	ttl time.Duration
	// now returns the current time.
	now func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a repository.
func New(fetcher Fetcher, cache linecache.Store, ttl time.Duration, opts ...Option) *Repository {
	r := &Repository{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Statuses starts one fetch and returns the sequence of results. The channel is
// buffered for the whole sequence and closed after the last result, so a caller
// may stop reading at any point. The fetch runs to completion even when ctx is
// canceled, so the cache is still refreshed.
func (r *Repository) Statuses(ctx context.Context) <-chan line.Result {
	results := make(chan line.Result, maxEmissions)

	go func() {
		defer close(results)

		r.emit(ctx, results)
	}()

	return results
}

// Refresh performs one best-effort fetch and write-through. Failures are logged only.
func (r *Repository) Refresh(ctx context.Context) {
	ctx = logger.WithName(ctx, "linestatus")

	if _, err := r.fetchAndStore(context.WithoutCancel(ctx)); err != nil {
		logger.WarnKV(ctx, "Line status refresh failed", "error", err)
	}
}

// LastUpdateTime returns when the cache was last written; ok is false for an empty cache.
func (r *Repository) LastUpdateTime(ctx context.Context) (time.Time, bool) {
	updatedAt, ok, err := r.cache.LastUpdated(ctx)
	if err != nil {
		logger.WarnKV(logger.WithName(ctx, "linestatus"), "Read last update time failed", "error", err)

		return time.Time{}, false
	}

	return updatedAt, ok
}

// Cached returns the cached snapshot without touching the network.
func (r *Repository) Cached(ctx context.Context) ([]line.Cached, error) {
	entries, err := r.cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("read line cache: %w", err)
	}

	return entries, nil
}

// emit produces the result sequence of one Statuses call.
func (r *Repository) emit(ctx context.Context, results chan<- line.Result) {
	ctx = logger.WithName(ctx, "linestatus")

	send(results, line.Loading())

	cached, err := r.cache.All(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Read line cache failed", "error", err)

		cached = nil
	}

	hasCache := len(cached) > 0
	if hasCache {
		send(results, line.Success(linecache.Statuses(cached)))
	}

	fresh, err := r.fetchAndStore(context.WithoutCancel(ctx))
	if err == nil {
		send(results, line.Success(fresh))

		return
	}

	if hasCache {
		logger.InfoKV(ctx, "Fetch failed, cached statuses kept", "error", err)

		return
	}

	logger.WarnKV(ctx, "Fetch failed with empty cache", "error", err)
	send(results, toFailure(err))
}

// fetchAndStore fetches every line and writes the batch through to the cache.
// A cache write failure is logged and does not discard the fresh snapshot.
func (r *Repository) fetchAndStore(ctx context.Context) ([]line.Status, error) {
	fresh, err := r.fetcher.FetchLines(ctx)
	if err != nil {
		return nil, err
	}

	if len(fresh) == 0 {
		return nil, feed.ErrEmptyResponse
	}

	if err = r.cache.Upsert(ctx, fresh, r.now(), r.ttl); err != nil {
		logger.ErrorKV(ctx, "Write line cache failed", "error", err)
	}

	return fresh, nil
}

// toFailure maps a fetch error to the user-facing Error result.
func toFailure(err error) line.Result {
	var statusErr *feed.StatusError

	switch {
	case errors.Is(err, feed.ErrEmptyResponse):
		return line.Failure(MessageEmptyResponse, 0)
	case errors.As(err, &statusErr):
		return line.Failure(statusMessage(statusErr.Code), statusErr.Code)
	case errors.Is(err, feed.ErrUnreachable):
		return line.Failure(MessageNoConnection, 0)
	default:
		return line.Failure(fmt.Sprintf("An error occurred: %v", err), 0)
	}
}

// statusMessage returns the message for a non-2xx status code.
func statusMessage(code int) string {
	switch {
	case code == http.StatusUnauthorized:
		return MessageConfiguration
	case code == http.StatusTooManyRequests:
		return MessageRateLimited
	case code >= http.StatusInternalServerError:
		return MessageServiceUnavailable
	default:
		return MessageFetchFailed
	}
}

// send delivers r; the channel is sized so it never blocks.
func send(results chan<- line.Result, r line.Result) {
	metrics.IncSyncResult(r.Kind.String())

	results <- r
}
