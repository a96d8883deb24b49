// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import "context"

// SyncService defines the primary port for the annotation synchronization
// pipeline. Implementations live in the application layer; adapters in the
// CLI and HTTP layers.
type SyncService interface {
	// OnChange ingests a batch of change notifications. Store mutation is
	// immediate (subject to the completion lock); evaluation is debounced
	// so a burst of correlated notifications settles to one outcome.
	OnChange(ctx context.Context, batch []ChangeNotification) error

	// Flush forces an immediate evaluation of the pending state, bypassing
	// the remaining settle window. Used at shutdown and in tests.
	Flush(ctx context.Context) error

	// Status reports the engine's current view of the session.
	Status(ctx context.Context) (*EngineStatus, error)

	// Close stops the engine's timers.
	Close()
}

// ChangeNotification is one inbound record change event. A nil or empty
// Stats map means the annotation's geometry has not been measured yet.
// Deleted marks a removal; the remaining fields besides UID are ignored.
type ChangeNotification struct {
	UID       string         `json:"uid"`
	SeriesUID string         `json:"seriesUid"`
	Label     string         `json:"label,omitempty"`
	Stats     map[string]any `json:"stats,omitempty"`
	Score     *int           `json:"score,omitempty"`
	Deleted   bool           `json:"deleted,omitempty"`
}

// EngineStatus describes the engine state at the port boundary.
type EngineStatus struct {
	StudyUID          string   `json:"studyUid"`
	ActiveSeriesUID   string   `json:"activeSeriesUid"`
	StudyCompleted    bool     `json:"studyCompleted"`
	CompletedSeries   []string `json:"completedSeries,omitempty"`
	RecordCount       int      `json:"recordCount"`
	SyncableCount     int      `json:"syncableCount"`
	InvalidCount      int      `json:"invalidCount"`
	PendingEvaluation bool     `json:"pendingEvaluation"`
	LastEmittedCount  int      `json:"lastEmittedCount"`
}
