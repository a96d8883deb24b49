// Package annotation contains the pure business logic for annotation records.
// This is part of the Functional Core - no I/O, only pure functions.
package annotation

// Suspicion score bounds (closed range).
const (
	MinScore = 1
	MaxScore = 5
)

// Record is a user-authored annotation as it moves through the pipeline.
// The canonical copy lives in the record store; everything else operates on
// copies passed by value.
type Record struct {
	UID       string         `json:"uid"`             // stable unique identifier, survives edits
	SeriesUID string         `json:"seriesUid"`       // owning scope
	Label     string         `json:"label,omitempty"` // category/label string
	Stats     map[string]any `json:"stats,omitempty"` // measurement statistics; opaque beyond presence
	Score     *int           `json:"score,omitempty"` // suspicion score, nil until assigned
}

// Complete reports whether the record's geometry has been measured.
// A record with no statistics payload is still being drawn and is excluded
// from synchronization and alerting alike.
func (r Record) Complete() bool {
	return len(r.Stats) > 0
}

// ScoreValid reports whether a score is present and inside [MinScore, MaxScore].
// An out-of-range score is treated the same as a missing one.
func (r Record) ScoreValid() bool {
	return r.Score != nil && *r.Score >= MinScore && *r.Score <= MaxScore
}

// Syncable reports whether the record is eligible for synchronization:
// complete and validly scored.
func (r Record) Syncable() bool {
	return r.Complete() && r.ScoreValid()
}

// Clone returns a deep copy of the record so callers can hold snapshots
// without sharing the stats map with the store.
func (r Record) Clone() Record {
	out := r
	if r.Stats != nil {
		out.Stats = make(map[string]any, len(r.Stats))
		for k, v := range r.Stats {
			out.Stats[k] = v
		}
	}
	if r.Score != nil {
		score := *r.Score
		out.Score = &score
	}
	return out
}
