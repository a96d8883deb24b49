// Package postgres contains PostgreSQL implementations of repository
// interfaces for deployments that share a session store across hosts.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/carjohnson/annosync/internal/ports/secondary"
)

const schema = `
CREATE TABLE IF NOT EXISTS annotation_records (
	uid         TEXT PRIMARY KEY,
	study_uid   TEXT NOT NULL,
	series_uid  TEXT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	stats_json  TEXT NOT NULL DEFAULT '',
	score       INTEGER,
	position    INTEGER NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_annotation_records_study
	ON annotation_records(study_uid, position);

CREATE TABLE IF NOT EXISTS scope_states (
	study_uid        TEXT PRIMARY KEY,
	study_completed  BOOLEAN NOT NULL DEFAULT FALSE,
	completed_series TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// SessionRepository implements secondary.SessionRepository with PostgreSQL.
type SessionRepository struct {
	db *sql.DB
}

// Open connects to PostgreSQL, verifies the connection and ensures the
// session tables exist.
func Open(dsn string) (*SessionRepository, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SessionRepository{db: conn}, nil
}

// NewSessionRepository wraps an existing connection, for tests.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Close releases the underlying connection pool.
func (r *SessionRepository) Close() error {
	return r.db.Close()
}

// SaveRecord inserts or updates a persisted record row.
func (r *SessionRepository) SaveRecord(ctx context.Context, row *secondary.RecordRow) error {
	if row.UID == "" {
		return fmt.Errorf("record UID must be pre-populated by service layer")
	}
	if row.SeriesUID == "" {
		return fmt.Errorf("record SeriesUID must be pre-populated by service layer")
	}

	var score sql.NullInt64
	if row.Score != nil {
		score = sql.NullInt64{Int64: int64(*row.Score), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO annotation_records (uid, study_uid, series_uid, label, stats_json, score, position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (uid) DO UPDATE SET
			series_uid = EXCLUDED.series_uid,
			label = EXCLUDED.label,
			stats_json = EXCLUDED.stats_json,
			score = EXCLUDED.score,
			updated_at = now()`,
		row.UID, row.StudyUID, row.SeriesUID, row.Label, row.StatsJSON, score, row.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// DeleteRecord removes a persisted record row.
func (r *SessionRepository) DeleteRecord(ctx context.Context, uid string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM annotation_records WHERE uid = $1", uid); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// ListRecords retrieves all rows for a study in position order.
func (r *SessionRepository) ListRecords(ctx context.Context, studyUID string) ([]*secondary.RecordRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT uid, study_uid, series_uid, label, stats_json, score, position, updated_at
		FROM annotation_records WHERE study_uid = $1 ORDER BY position`,
		studyUID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []*secondary.RecordRow
	for rows.Next() {
		var (
			row       secondary.RecordRow
			score     sql.NullInt64
			updatedAt time.Time
		)
		if err := rows.Scan(&row.UID, &row.StudyUID, &row.SeriesUID, &row.Label,
			&row.StatsJSON, &score, &row.Position, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if score.Valid {
			v := int(score.Int64)
			row.Score = &v
		}
		row.UpdatedAt = updatedAt.Format(time.RFC3339)
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return out, nil
}

// SaveScope inserts or updates the persisted completion state of a study.
func (r *SessionRepository) SaveScope(ctx context.Context, row *secondary.ScopeRow) error {
	if row.StudyUID == "" {
		return fmt.Errorf("scope StudyUID must be pre-populated by service layer")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scope_states (study_uid, study_completed, completed_series, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (study_uid) DO UPDATE SET
			study_completed = EXCLUDED.study_completed,
			completed_series = EXCLUDED.completed_series,
			updated_at = now()`,
		row.StudyUID, row.StudyCompleted, strings.Join(row.CompletedSeries, ","),
	)
	if err != nil {
		return fmt.Errorf("failed to save scope: %w", err)
	}
	return nil
}

// GetScope retrieves the persisted completion state of a study.
func (r *SessionRepository) GetScope(ctx context.Context, studyUID string) (*secondary.ScopeRow, error) {
	var (
		row       secondary.ScopeRow
		series    string
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT study_uid, study_completed, completed_series, updated_at FROM scope_states WHERE study_uid = $1",
		studyUID,
	).Scan(&row.StudyUID, &row.StudyCompleted, &series, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scope: %w", err)
	}

	if series != "" {
		row.CompletedSeries = strings.Split(series, ",")
	}
	row.UpdatedAt = updatedAt.Format(time.RFC3339)
	return &row, nil
}

var _ secondary.SessionRepository = (*SessionRepository)(nil)
