package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/line"
	"github.com/oshokin/commute-alarm/internal/repository/linecache"
)

// LineCache stores line statuses in the commute_line_cache table.
type LineCache struct {
	db *sql.DB
}

// NewLineCache constructs a cache over db.
func NewLineCache(db *sql.DB) *LineCache {
	return &LineCache{db: db}
}

// All returns every cached status ordered by line id.
func (c *LineCache) All(ctx context.Context) ([]line.Cached, error) {
	if c == nil || c.db == nil {
		return nil, errNilDB
	}

	rows, err := c.db.QueryContext(ctx, `
SELECT status, updated_at, expires_at FROM commute_line_cache ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query line cache: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var result []line.Cached

	for rows.Next() {
		entry, err := scanCached(rows)
		if err != nil {
			return nil, err
		}

		result = append(result, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line cache: %w", err)
	}

	return result, nil
}

// Get returns the cached status of one line.
func (c *LineCache) Get(ctx context.Context, id string) (line.Cached, error) {
	if c == nil || c.db == nil {
		return line.Cached{}, errNilDB
	}

	entry, err := scanCached(c.db.QueryRowContext(ctx, `
SELECT status, updated_at, expires_at FROM commute_line_cache WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return line.Cached{}, linecache.ErrNotFound
	}

	return entry, err
}

// Upsert writes a batch of statuses in one transaction.
func (c *LineCache) Upsert(ctx context.Context, lines []line.Status, updatedAt time.Time, ttl time.Duration) (err error) {
	if c == nil || c.db == nil {
		return errNilDB
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range lines {
		if lines[i].ID == "" {
			continue
		}

		var status []byte

		status, err = json.Marshal(lines[i])
		if err != nil {
			return fmt.Errorf("encode line %s: %w", lines[i].ID, err)
		}

		if _, err = tx.ExecContext(ctx, `
INSERT INTO commute_line_cache (id, status, updated_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`,
			lines[i].ID, string(status), updatedAt, updatedAt.Add(ttl),
		); err != nil {
			return fmt.Errorf("upsert line %s: %w", lines[i].ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit line cache: %w", err)
	}

	return nil
}

// LastUpdated returns the most recent update time.
func (c *LineCache) LastUpdated(ctx context.Context) (time.Time, bool, error) {
	if c == nil || c.db == nil {
		return time.Time{}, false, errNilDB
	}

	var latest sql.NullTime
	if err := c.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM commute_line_cache`).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("query last update: %w", err)
	}

	return latest.Time, latest.Valid, nil
}

// Clear removes every entry.
func (c *LineCache) Clear(ctx context.Context) error {
	if c == nil || c.db == nil {
		return errNilDB
	}

	if _, err := c.db.ExecContext(ctx, `DELETE FROM commute_line_cache`); err != nil {
		return fmt.Errorf("clear line cache: %w", err)
	}

	return nil
}

func scanCached(row rowScanner) (line.Cached, error) {
	var (
		entry  line.Cached
		status []byte
	)

	if err := row.Scan(&status, &entry.UpdatedAt, &entry.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return line.Cached{}, err
		}

		return line.Cached{}, fmt.Errorf("scan line cache: %w", err)
	}

	if err := json.Unmarshal(status, &entry.Status); err != nil {
		return line.Cached{}, fmt.Errorf("decode line status: %w", err)
	}

	return entry, nil
}

var _ linecache.Store = (*LineCache)(nil)
