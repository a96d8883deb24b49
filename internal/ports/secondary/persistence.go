// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"

	"github.com/carjohnson/annosync/internal/core/annotation"
)

// RecordStore defines the secondary port for the canonical in-memory record
// mapping. Identifiers are unique at any instant; Upsert for a known UID
// replaces the stored record. The store is the single owner of the canonical
// copies - it returns clones so callers never share the stats maps.
type RecordStore interface {
	// Upsert inserts or replaces the record keyed by its UID.
	Upsert(rec annotation.Record)

	// Remove deletes the record with the given UID, if present.
	Remove(uid string)

	// Get returns a copy of the record with the given UID.
	Get(uid string) (annotation.Record, bool)

	// List returns copies of all records in arrival order.
	List() []annotation.Record

	// ListBySeries returns copies of the records owned by a series, in
	// arrival order.
	ListBySeries(seriesUID string) []annotation.Record

	// Len returns the number of stored records.
	Len() int
}

// SessionRepository defines the secondary port for durable session
// persistence. The in-memory record store stays canonical; the session
// repository is a write-through copy that survives process restarts.
type SessionRepository interface {
	// SaveRecord inserts or updates a persisted record row.
	SaveRecord(ctx context.Context, row *RecordRow) error

	// DeleteRecord removes a persisted record row.
	DeleteRecord(ctx context.Context, uid string) error

	// ListRecords retrieves all rows for a study in position order.
	ListRecords(ctx context.Context, studyUID string) ([]*RecordRow, error)

	// SaveScope inserts or updates the persisted completion state of a study.
	SaveScope(ctx context.Context, row *ScopeRow) error

	// GetScope retrieves the persisted completion state of a study.
	// Returns (nil, nil) when the study has never been seen.
	GetScope(ctx context.Context, studyUID string) (*ScopeRow, error)
}

// RecordRow represents an annotation record as stored in persistence.
type RecordRow struct {
	UID       string
	StudyUID  string
	SeriesUID string
	Label     string
	StatsJSON string // opaque statistics payload serialized as JSON
	Score     *int
	Position  int // arrival order within the session
	UpdatedAt string
}

// ScopeRow represents a study's completion state as stored in persistence.
type ScopeRow struct {
	StudyUID        string
	StudyCompleted  bool
	CompletedSeries []string
	UpdatedAt       string
}
