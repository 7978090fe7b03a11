package linecache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/line"
	"github.com/oshokin/commute-alarm/internal/repository/jsonfile"
)

// DefaultFilename is the cache document name inside the store directory.
const DefaultFilename = "lines.json"

// FileStore keeps the cache in memory and mirrors it to a JSON file.
type FileStore struct {
	// path is the filesystem location of the JSON document.
	path string
	// entries holds cached statuses by line id.
	entries map[string]line.Cached
	// mu serializes writers; readers share it.
	mu sync.RWMutex
}

type document struct {
	Lines []line.Cached `json:"lines"`
}

// NewFileStore loads the cache at path, starting empty when it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    filepath.Clean(path),
		entries: make(map[string]line.Cached),
	}

	var doc document

	err := jsonfile.Read(s.path, &doc)
	switch {
	case err == nil:
	case errors.Is(err, jsonfile.ErrNotFound):
		return s, nil
	default:
		return nil, fmt.Errorf("load line cache: %w", err)
	}

	for _, entry := range doc.Lines {
		if entry.ID != "" {
			s.entries[entry.ID] = entry
		}
	}

	return s, nil
}

// All returns every cached status ordered by line id.
func (s *FileStore) All(_ context.Context) ([]line.Cached, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(), nil
}

// Get returns the cached status of one line.
func (s *FileStore) Get(_ context.Context, id string) (line.Cached, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return line.Cached{}, ErrNotFound
	}

	entry.Status = entry.Status.Clone()

	return entry, nil
}

// Upsert writes a batch of statuses as one document replacement.
func (s *FileStore) Upsert(_ context.Context, lines []line.Status, updatedAt time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]line.Cached, len(s.entries)+len(lines))
	for id, entry := range s.entries {
		next[id] = entry
	}

	for i := range lines {
		if lines[i].ID == "" {
			continue
		}

		next[lines[i].ID] = line.Cached{
			Status:    lines[i].Clone(),
			UpdatedAt: updatedAt,
			ExpiresAt: updatedAt.Add(ttl),
		}
	}

	if err := s.persist(next); err != nil {
		return err
	}

	s.entries = next

	return nil
}

// LastUpdated returns the most recent update time.
func (s *FileStore) LastUpdated(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time

	for _, entry := range s.entries {
		if entry.UpdatedAt.After(latest) {
			latest = entry.UpdatedAt
		}
	}

	return latest, len(s.entries) > 0, nil
}

// Clear removes every entry.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := make(map[string]line.Cached)
	if err := s.persist(empty); err != nil {
		return err
	}

	s.entries = empty

	return nil
}

// sorted returns copies of the entries ordered by id. Callers must hold the lock.
func (s *FileStore) sorted() []line.Cached {
	return sortEntries(s.entries)
}

// persist writes entries to disk. Callers must hold the write lock.
func (s *FileStore) persist(entries map[string]line.Cached) error {
	if err := jsonfile.Write(s.path, document{Lines: sortEntries(entries)}); err != nil {
		return fmt.Errorf("persist line cache: %w", err)
	}

	return nil
}

func sortEntries(entries map[string]line.Cached) []line.Cached {
	result := make([]line.Cached, 0, len(entries))
	for _, entry := range entries {
		entry.Status = entry.Status.Clone()
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b line.Cached) int {
		return strings.Compare(a.ID, b.ID)
	})

	return result
}
