package linecache

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/line"
)

// ErrNotFound is returned when a line has no cached status.
var ErrNotFound = errors.New("line not cached")

// Store defines the cache operations used by the sync repository.
type Store interface {
	// All returns every cached status ordered by line id, including expired ones.
	All(ctx context.Context) ([]line.Cached, error)
	// Get returns the cached status of one line or ErrNotFound.
	Get(ctx context.Context, id string) (line.Cached, error)
	// Upsert writes lines with updatedAt and an expiry of updatedAt+ttl.
	// Lines absent from the batch keep their previous entries.
	Upsert(ctx context.Context, lines []line.Status, updatedAt time.Time, ttl time.Duration) error
	// LastUpdated returns the most recent update time; ok is false when the cache is empty.
	LastUpdated(ctx context.Context) (updatedAt time.Time, ok bool, err error)
	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// Statuses strips cache metadata from entries.
func Statuses(entries []line.Cached) []line.Status {
	result := make([]line.Status, 0, len(entries))
	for i := range entries {
		result = append(result, entries[i].Status.Clone())
	}

	return result
}
