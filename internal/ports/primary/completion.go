package primary

import "context"

// CompletionService defines the primary port for scope completion.
type CompletionService interface {
	// CompleteSeries validates the series against the worklist and marks it
	// complete. The transition is one-directional.
	CompleteSeries(ctx context.Context, req CompleteSeriesRequest) (*CompleteSeriesResponse, error)

	// CompleteStudy marks the whole study complete, sealing every member
	// series. Requires an administrator and explicit confirmation.
	CompleteStudy(ctx context.Context, req CompleteStudyRequest) (*CompleteStudyResponse, error)

	// SetActiveSeries switches the engine's active series focus.
	SetActiveSeries(ctx context.Context, seriesUID string) error
}

// CompleteSeriesRequest contains parameters for completing a series.
type CompleteSeriesRequest struct {
	SeriesUID string `json:"seriesUid"`
}

// CompleteSeriesResponse contains the result of completing a series.
type CompleteSeriesResponse struct {
	Completed        bool `json:"completed"`
	AlreadyCompleted bool `json:"alreadyCompleted"`
	// NotValidated is set when the worklist check refused the series or
	// failed transiently (fail-open to "not yet validated").
	NotValidated bool `json:"notValidated"`
	// Stale is set when the check resolved after the active scope moved on
	// and the result was discarded.
	Stale bool `json:"stale"`
}

// CompleteStudyRequest contains parameters for completing a study.
type CompleteStudyRequest struct {
	Confirmed bool `json:"confirmed"`
}

// CompleteStudyResponse contains the result of completing a study.
type CompleteStudyResponse struct {
	Completed        bool `json:"completed"`
	AlreadyCompleted bool `json:"alreadyCompleted"`
	// PendingSeries lists series the worklist still reports as in progress
	// at completion time, when that information was available.
	PendingSeries []string `json:"pendingSeries,omitempty"`
}

// ActivityService defines the primary port for querying the audit trail.
type ActivityService interface {
	// Recent returns the most recent audit entries, newest first.
	Recent(ctx context.Context, limit int) ([]*ActivityRecord, error)
}

// ActivityRecord represents an audit entry at the port boundary.
type ActivityRecord struct {
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	FieldName  string `json:"fieldName,omitempty"`
	OldValue   string `json:"oldValue,omitempty"`
	NewValue   string `json:"newValue,omitempty"`
	CreatedAt  string `json:"createdAt"`
}
