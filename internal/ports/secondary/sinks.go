package secondary

import (
	"context"

	"github.com/carjohnson/annosync/internal/core/annotation"
)

// Snapshot is the outbound payload delivered to the external consumer:
// the deduplicated, fully-scored record set plus an opaque scope-identity
// tag the consumer uses to associate it with the correct case. It is a
// value - emitted and forgotten.
type Snapshot struct {
	Records       []annotation.Record `json:"records"`
	ScopeIdentity string              `json:"scopeIdentity"`
}

// Warning is a user-facing validation warning.
type Warning struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ProgressReport is sent when a scope transitions to completed.
// SeriesUID is empty for study-level transitions.
type ProgressReport struct {
	Username  string `json:"username"`
	StudyUID  string `json:"studyUid"`
	SeriesUID string `json:"seriesUid,omitempty"`
	Status    string `json:"status"` // "wip" or "done"
}

// SnapshotSink defines the secondary port for snapshot delivery.
type SnapshotSink interface {
	// Publish delivers one synchronized snapshot to the consumer.
	Publish(ctx context.Context, snap Snapshot) error
}

// AlertSink defines the secondary port for the user-facing warning surface.
type AlertSink interface {
	// Warn surfaces a warning to the user.
	Warn(ctx context.Context, warning Warning) error
}

// ProgressReporter defines the secondary port for completion progress
// reporting.
type ProgressReporter interface {
	// Report sends a progress transition for a scope.
	Report(ctx context.Context, report ProgressReport) error
}
