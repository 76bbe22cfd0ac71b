package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies the journal schema. Statements are re-run on every open,
// so each one must be idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS batch_runs (
		id          TEXT PRIMARY KEY,
		intent      TEXT NOT NULL,
		subject     TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL
		            CHECK(status IN ('ok','partial','failed','rejected')),
		issued      INTEGER NOT NULL DEFAULT 0,
		succeeded   INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		warnings    TEXT NOT NULL DEFAULT '',
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_batch_runs_started ON batch_runs(started_at)`,

	`CREATE TABLE IF NOT EXISTS batch_steps (
		run_id      TEXT NOT NULL REFERENCES batch_runs(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		kind        TEXT NOT NULL CHECK(kind IN ('structural','membership')),
		op          TEXT NOT NULL,
		entity      TEXT NOT NULL,
		label       TEXT NOT NULL DEFAULT '',
		attempted   INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_batch_steps_entity ON batch_steps(entity)`,

	// Vehicle id returned by a successful registration.
	`ALTER TABLE batch_runs ADD COLUMN created_vehicle_id TEXT NOT NULL DEFAULT ''`,
}
