package alarms

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/repository/jsonfile"
)

// DefaultFilename is the alarm document name inside the store directory.
const DefaultFilename = "alarms.json"

// FileRepository keeps alarms in memory and persists every mutation to a JSON file.
type FileRepository struct {
	// path is the filesystem location of the JSON document.
	path string
	// alarms holds the current records by id.
	alarms map[string]*alarm.Alarm
	// mu serializes writers; readers share it.
	mu sync.RWMutex
}

// document is the on-disk layout.
type document struct {
	Alarms []*alarm.Alarm `json:"alarms"`
}

// NewFileRepository loads the document at path, starting empty when it does not exist.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path:   filepath.Clean(path),
		alarms: make(map[string]*alarm.Alarm),
	}

	var doc document

	err := jsonfile.Read(r.path, &doc)
	switch {
	case err == nil:
	case errors.Is(err, jsonfile.ErrNotFound):
		return r, nil
	default:
		return nil, fmt.Errorf("load alarms: %w", err)
	}

	for _, a := range doc.Alarms {
		if a == nil || a.ID == "" {
			continue
		}

		r.alarms[a.ID] = a
	}

	return r, nil
}

// List returns every alarm ordered by time of day.
func (r *FileRepository) List(_ context.Context) ([]*alarm.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedCopy(), nil
}

// Get returns the alarm with id.
func (r *FileRepository) Get(_ context.Context, id string) (*alarm.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.alarms[id]
	if !ok {
		return nil, ErrNotFound
	}

	return a.Clone(), nil
}

// Create inserts a new alarm.
func (r *FileRepository) Create(_ context.Context, a *alarm.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alarms[a.ID]; ok {
		return ErrAlreadyExists
	}

	if len(r.alarms) >= alarm.MaxAlarms {
		return ErrLimitReached
	}

	return r.commit(a.Clone(), nil)
}

// Update replaces an existing alarm.
func (r *FileRepository) Update(_ context.Context, a *alarm.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.alarms[a.ID]
	if !ok {
		return ErrNotFound
	}

	return r.commit(a.Clone(), previous)
}

// Upsert replaces an alarm or inserts it subject to the limit.
func (r *FileRepository) Upsert(_ context.Context, a *alarm.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.alarms[a.ID]
	if !ok && len(r.alarms) >= alarm.MaxAlarms {
		return ErrLimitReached
	}

	return r.commit(a.Clone(), previous)
}

// Delete removes the alarm with id.
func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.alarms[id]
	if !ok {
		return ErrNotFound
	}

	delete(r.alarms, id)

	if err := r.persist(); err != nil {
		r.alarms[id] = previous

		return err
	}

	return nil
}

// Count returns the number of stored alarms.
func (r *FileRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.alarms), nil
}

// SetEnabled flips the enabled flag of the alarm with id.
func (r *FileRepository) SetEnabled(_ context.Context, id string, enabled bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.alarms[id]
	if !ok {
		return ErrNotFound
	}

	updated := previous.Clone()
	updated.Enabled = enabled
	updated.ModifiedAt = at

	return r.commit(updated, previous)
}

// commit stores a and persists, restoring previous (or removing a) on failure.
// Callers must hold the write lock.
func (r *FileRepository) commit(a, previous *alarm.Alarm) error {
	r.alarms[a.ID] = a

	if err := r.persist(); err != nil {
		if previous != nil {
			r.alarms[a.ID] = previous
		} else {
			delete(r.alarms, a.ID)
		}

		return err
	}

	return nil
}

// persist writes the current records. Callers must hold the write lock.
func (r *FileRepository) persist() error {
	if err := jsonfile.Write(r.path, document{Alarms: r.sortedCopy()}); err != nil {
		return fmt.Errorf("persist alarms: %w", err)
	}

	return nil
}

// sortedCopy returns cloned records ordered by time of day.
func (r *FileRepository) sortedCopy() []*alarm.Alarm {
	result := make([]*alarm.Alarm, 0, len(r.alarms))
	for _, a := range r.alarms {
		result = append(result, a.Clone())
	}

	slices.SortFunc(result, alarm.Compare)

	return result
}
