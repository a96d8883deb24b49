package secondary

import "context"

// ActivityLog defines the interface for writing audit log entries.
// Implementations extract the actor from context. Locked-scope mutation
// attempts are recorded as notices here rather than surfaced as errors.
type ActivityLog interface {
	// LogCreate logs a create operation for an entity.
	LogCreate(ctx context.Context, entityType, entityID string) error

	// LogUpdate logs an update operation for an entity field.
	// fieldName, oldValue, newValue describe what changed.
	LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error

	// LogDelete logs a delete operation for an entity.
	LogDelete(ctx context.Context, entityType, entityID string) error

	// LogNotice logs a non-error notice for an entity, such as a blocked
	// mutation against a sealed scope.
	LogNotice(ctx context.Context, entityType, entityID, notice string) error
}

// ActivityRepository defines the secondary port for querying the audit trail.
type ActivityRepository interface {
	// Append persists one audit entry.
	Append(ctx context.Context, entry *ActivityEntry) error

	// ListRecent retrieves the most recent entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]*ActivityEntry, error)
}

// ActivityEntry represents one audit trail row.
type ActivityEntry struct {
	ID         int64
	Actor      string
	Action     string // "create", "update", "delete", "notice"
	EntityType string
	EntityID   string
	FieldName  string
	OldValue   string
	NewValue   string
	CreatedAt  string
}
