package db

import (
	"database/sql"
	"fmt"
)

// Schema is the full sqlite schema for the session store and audit trail.
// CREATE IF NOT EXISTS keeps reopen idempotent; the schema carries no data
// the engine cannot rebuild from a fresh session.
const Schema = `
CREATE TABLE IF NOT EXISTS annotation_records (
	uid         TEXT PRIMARY KEY,
	study_uid   TEXT NOT NULL,
	series_uid  TEXT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	stats_json  TEXT NOT NULL DEFAULT '',
	score       INTEGER,
	position    INTEGER NOT NULL,
	updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_annotation_records_study
	ON annotation_records(study_uid, position);

CREATE TABLE IF NOT EXISTS scope_states (
	study_uid        TEXT PRIMARY KEY,
	study_completed  INTEGER NOT NULL DEFAULT 0,
	completed_series TEXT NOT NULL DEFAULT '',
	updated_at       DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS activity_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	actor       TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	field_name  TEXT NOT NULL DEFAULT '',
	old_value   TEXT NOT NULL DEFAULT '',
	new_value   TEXT NOT NULL DEFAULT '',
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates the tables if they do not exist.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
