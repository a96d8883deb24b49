// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// SessionRepository implements secondary.SessionRepository with SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
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
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(uid) DO UPDATE SET
			series_uid = excluded.series_uid,
			label = excluded.label,
			stats_json = excluded.stats_json,
			score = excluded.score,
			updated_at = CURRENT_TIMESTAMP`,
		row.UID, row.StudyUID, row.SeriesUID, row.Label, row.StatsJSON, score, row.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// DeleteRecord removes a persisted record row.
func (r *SessionRepository) DeleteRecord(ctx context.Context, uid string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM annotation_records WHERE uid = ?", uid); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// ListRecords retrieves all rows for a study in position order.
func (r *SessionRepository) ListRecords(ctx context.Context, studyUID string) ([]*secondary.RecordRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT uid, study_uid, series_uid, label, stats_json, score, position, updated_at
		FROM annotation_records WHERE study_uid = ? ORDER BY position`,
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

	completed := 0
	if row.StudyCompleted {
		completed = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scope_states (study_uid, study_completed, completed_series, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(study_uid) DO UPDATE SET
			study_completed = excluded.study_completed,
			completed_series = excluded.completed_series,
			updated_at = CURRENT_TIMESTAMP`,
		row.StudyUID, completed, strings.Join(row.CompletedSeries, ","),
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
		completed int
		series    string
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT study_uid, study_completed, completed_series, updated_at FROM scope_states WHERE study_uid = ?",
		studyUID,
	).Scan(&row.StudyUID, &completed, &series, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scope: %w", err)
	}

	row.StudyCompleted = completed != 0
	if series != "" {
		row.CompletedSeries = strings.Split(series, ",")
	}
	row.UpdatedAt = updatedAt.Format(time.RFC3339)
	return &row, nil
}

var _ secondary.SessionRepository = (*SessionRepository)(nil)
