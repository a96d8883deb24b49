package app

import (
	"context"
	"fmt"

	"github.com/carjohnson/annosync/internal/ports/primary"
	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// ActivityServiceImpl implements the ActivityService interface.
type ActivityServiceImpl struct {
	activityRepo secondary.ActivityRepository
}

// NewActivityService creates a new ActivityService with injected dependencies.
func NewActivityService(activityRepo secondary.ActivityRepository) *ActivityServiceImpl {
	return &ActivityServiceImpl{activityRepo: activityRepo}
}

// Recent returns the most recent audit entries, newest first.
func (s *ActivityServiceImpl) Recent(ctx context.Context, limit int) ([]*primary.ActivityRecord, error) {
	entries, err := s.activityRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	records := make([]*primary.ActivityRecord, len(entries))
	for i, e := range entries {
		records[i] = &primary.ActivityRecord{
			Actor:      e.Actor,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			FieldName:  e.FieldName,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			CreatedAt:  e.CreatedAt,
		}
	}
	return records, nil
}

// Ensure ActivityServiceImpl implements the interface
var _ primary.ActivityService = (*ActivityServiceImpl)(nil)
