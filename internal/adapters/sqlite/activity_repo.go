package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// ActivityRepository implements secondary.ActivityRepository with SQLite.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new SQLite activity repository.
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append stores an activity entry. The ID field is assigned by the database.
func (r *ActivityRepository) Append(ctx context.Context, entry *secondary.ActivityEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (actor, action, entity_type, entity_id, field_name, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		entry.Actor, entry.Action, entry.EntityType, entry.EntityID,
		entry.FieldName, entry.OldValue, entry.NewValue,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity entry: %w", err)
	}
	return nil
}

// ListRecent retrieves the most recent entries, newest first.
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*secondary.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor, action, entity_type, entity_id, field_name, old_value, new_value, created_at
		FROM activity_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity entries: %w", err)
	}
	defer rows.Close()

	var out []*secondary.ActivityEntry
	for rows.Next() {
		var (
			entry     secondary.ActivityEntry
			createdAt time.Time
		)
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.FieldName, &entry.OldValue, &entry.NewValue, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entry.CreatedAt = createdAt.Format(time.RFC3339)
		out = append(out, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity entries: %w", err)
	}
	return out, nil
}
