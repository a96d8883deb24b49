package secondary

import "context"

// WorklistClient defines the secondary port for the external worklist
// collaborator: series-validity checks against the known series list and
// per-reader study progress. Both calls are asynchronous from the engine's
// point of view and may fail transiently; callers fail open per the error
// taxonomy (invalid / unknown, logged, never surfaced as an error).
type WorklistClient interface {
	// ValidateSeries reports whether the series is part of the study's
	// known series list.
	ValidateSeries(ctx context.Context, studyUID, seriesUID string) (bool, error)

	// FetchProgress retrieves the reader's per-series progress for a study.
	FetchProgress(ctx context.Context, username, studyUID string) ([]SeriesProgress, error)
}

// SeriesProgress is one entry of a study progress fetch.
type SeriesProgress struct {
	SeriesUID string `json:"seriesUID"`
	Status    string `json:"status"` // "wip" or "done"
}
