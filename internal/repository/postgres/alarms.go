package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/repository/alarms"
)

// alarmLimitLock is the advisory lock key serializing inserts against the limit.
const alarmLimitLock = 0x636f6d6d

const selectAlarms = `
SELECT id, hour, minute, days, lines, enabled, created_at, modified_at
FROM commute_alarms`

// AlarmRepository stores alarms in the commute_alarms table.
type AlarmRepository struct {
	db *sql.DB
}

// NewAlarmRepository constructs a repository over db.
func NewAlarmRepository(db *sql.DB) *AlarmRepository {
	return &AlarmRepository{db: db}
}

// List returns every alarm ordered by time of day.
func (r *AlarmRepository) List(ctx context.Context) ([]*alarm.Alarm, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}

	rows, err := r.db.QueryContext(ctx, selectAlarms+` ORDER BY hour, minute, id`)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var result []*alarm.Alarm

	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, err
		}

		result = append(result, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alarms: %w", err)
	}

	slices.SortFunc(result, alarm.Compare)

	return result, nil
}

// Get returns the alarm with id.
func (r *AlarmRepository) Get(ctx context.Context, id string) (*alarm.Alarm, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}

	a, err := scanAlarm(r.db.QueryRowContext(ctx, selectAlarms+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, alarms.ErrNotFound
	}

	return a, err
}

// Create inserts a new alarm while holding the limit lock.
func (r *AlarmRepository) Create(ctx context.Context, a *alarm.Alarm) error {
	return r.insert(ctx, a, false)
}

// Upsert replaces an alarm or inserts it while holding the limit lock.
func (r *AlarmRepository) Upsert(ctx context.Context, a *alarm.Alarm) error {
	return r.insert(ctx, a, true)
}

// Update replaces an existing alarm.
func (r *AlarmRepository) Update(ctx context.Context, a *alarm.Alarm) error {
	if r == nil || r.db == nil {
		return errNilDB
	}

	if err := a.Validate(); err != nil {
		return err
	}

	lines, err := json.Marshal(a.Lines)
	if err != nil {
		return fmt.Errorf("encode lines: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE commute_alarms
SET hour = $2, minute = $3, days = $4, lines = $5, enabled = $6, created_at = $7, modified_at = $8
WHERE id = $1`,
		a.ID, a.Time.Hour, a.Time.Minute, int(a.Days), string(lines), a.Enabled, a.CreatedAt, a.ModifiedAt)
	if err != nil {
		return fmt.Errorf("update alarm: %w", err)
	}

	return expectOneRow(res)
}

// Delete removes the alarm with id.
func (r *AlarmRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errNilDB
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM commute_alarms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	return expectOneRow(res)
}

// Count returns the number of stored alarms.
func (r *AlarmRepository) Count(ctx context.Context) (int, error) {
	if r == nil || r.db == nil {
		return 0, errNilDB
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commute_alarms`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count alarms: %w", err)
	}

	return count, nil
}

// SetEnabled flips the enabled flag of the alarm with id.
func (r *AlarmRepository) SetEnabled(ctx context.Context, id string, enabled bool, at time.Time) error {
	if r == nil || r.db == nil {
		return errNilDB
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE commute_alarms SET enabled = $2, modified_at = $3 WHERE id = $1`, id, enabled, at)
	if err != nil {
		return fmt.Errorf("set alarm enabled: %w", err)
	}

	return expectOneRow(res)
}

// insert adds a, or replaces it when replace is set, within one transaction
// that holds an advisory lock so concurrent inserts cannot pass the limit.
func (r *AlarmRepository) insert(ctx context.Context, a *alarm.Alarm, replace bool) (err error) {
	if r == nil || r.db == nil {
		return errNilDB
	}

	if err = a.Validate(); err != nil {
		return err
	}

	lines, err := json.Marshal(a.Lines)
	if err != nil {
		return fmt.Errorf("encode lines: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, alarmLimitLock); err != nil {
		return fmt.Errorf("acquire limit lock: %w", err)
	}

	var exists bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM commute_alarms WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check alarm: %w", err)
	}

	switch {
	case exists && !replace:
		return alarms.ErrAlreadyExists
	case !exists:
		var count int
		if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM commute_alarms`).Scan(&count); err != nil {
			return fmt.Errorf("count alarms: %w", err)
		}

		if count >= alarm.MaxAlarms {
			return alarms.ErrLimitReached
		}
	}

	if _, err = tx.ExecContext(ctx, `
INSERT INTO commute_alarms (id, hour, minute, days, lines, enabled, created_at, modified_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	hour = EXCLUDED.hour, minute = EXCLUDED.minute, days = EXCLUDED.days, lines = EXCLUDED.lines,
	enabled = EXCLUDED.enabled, created_at = EXCLUDED.created_at, modified_at = EXCLUDED.modified_at`,
		a.ID, a.Time.Hour, a.Time.Minute, int(a.Days), string(lines), a.Enabled, a.CreatedAt, a.ModifiedAt,
	); err != nil {
		return fmt.Errorf("insert alarm: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit alarm: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlarm(row rowScanner) (*alarm.Alarm, error) {
	var (
		a     alarm.Alarm
		days  int
		lines []byte
	)

	err := row.Scan(&a.ID, &a.Time.Hour, &a.Time.Minute, &days, &lines, &a.Enabled, &a.CreatedAt, &a.ModifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan alarm: %w", err)
	}

	a.Days = alarm.Weekdays(days) & alarm.EveryDay

	if err = json.Unmarshal(lines, &a.Lines); err != nil {
		return nil, fmt.Errorf("decode alarm lines: %w", err)
	}

	return &a, nil
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return alarms.ErrNotFound
	}

	return nil
}

var _ alarms.Repository = (*AlarmRepository)(nil)
