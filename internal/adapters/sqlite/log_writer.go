package sqlite

import (
	"context"

	"github.com/carjohnson/annosync/internal/ctxutil"
	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.ActivityLog using ActivityRepository.
type LogWriterAdapter struct {
	logRepo secondary.ActivityRepository
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(logRepo secondary.ActivityRepository) *LogWriterAdapter {
	return &LogWriterAdapter{logRepo: logRepo}
}

// LogCreate logs a create operation for an entity.
func (w *LogWriterAdapter) LogCreate(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "create", "", "", "")
}

// LogUpdate logs an update operation for an entity field.
func (w *LogWriterAdapter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return w.writeLog(ctx, entityType, entityID, "update", fieldName, oldValue, newValue)
}

// LogDelete logs a delete operation for an entity.
func (w *LogWriterAdapter) LogDelete(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "delete", "", "", "")
}

// LogNotice logs a non-error notice for an entity.
func (w *LogWriterAdapter) LogNotice(ctx context.Context, entityType, entityID, notice string) error {
	return w.writeLog(ctx, entityType, entityID, "notice", "", "", notice)
}

// writeLog writes a log entry with common logic.
func (w *LogWriterAdapter) writeLog(ctx context.Context, entityType, entityID, action, fieldName, oldValue, newValue string) error {
	actor := ctxutil.ActorFromContext(ctx)

	entry := &secondary.ActivityEntry{
		Actor:      actor.Username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		FieldName:  fieldName,
		OldValue:   oldValue,
		NewValue:   newValue,
	}

	return w.logRepo.Append(ctx, entry)
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.ActivityLog = (*LogWriterAdapter)(nil)
