package alarms

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
)

var (
	// ErrNotFound is returned when no alarm has the requested id.
	ErrNotFound = errors.New("alarm not found")
	// ErrLimitReached is returned when inserting would exceed alarm.MaxAlarms.
	ErrLimitReached = errors.New("alarm limit reached")
	// ErrAlreadyExists is returned by Create for a duplicate id.
	ErrAlreadyExists = errors.New("alarm already exists")
)

// Repository defines persistence operations for alarm configurations.
// Returned alarms are copies; mutating them does not affect stored state.
type Repository interface {
	// List returns every alarm ordered by time of day.
	List(ctx context.Context) ([]*alarm.Alarm, error)
	// Get returns the alarm with id or ErrNotFound.
	Get(ctx context.Context, id string) (*alarm.Alarm, error)
	// Create inserts a new alarm, failing with ErrLimitReached without mutation when full.
	Create(ctx context.Context, a *alarm.Alarm) error
	// Update replaces an existing alarm or fails with ErrNotFound.
	Update(ctx context.Context, a *alarm.Alarm) error
	// Upsert replaces an alarm or inserts it subject to the limit.
	Upsert(ctx context.Context, a *alarm.Alarm) error
	// Delete removes the alarm with id or fails with ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Count returns the number of stored alarms.
	Count(ctx context.Context) (int, error)
	// SetEnabled flips the enabled flag and touches the modification time.
	SetEnabled(ctx context.Context, id string, enabled bool, at time.Time) error
}
