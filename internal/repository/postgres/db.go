package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" driver.
)

// schema is applied by Migrate; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS commute_alarms (
	id          TEXT PRIMARY KEY,
	hour        SMALLINT NOT NULL,
	minute      SMALLINT NOT NULL,
	days        SMALLINT NOT NULL DEFAULT 0,
	lines       JSONB NOT NULL,
	enabled     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL,
	modified_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS commute_line_cache (
	id         TEXT PRIMARY KEY,
	status     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
`

// errNilDB is returned when a store is used without a database handle.
var errNilDB = errors.New("postgres store: nil db")

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the tables when they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errNilDB
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}
