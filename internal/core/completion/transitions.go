// Package completion contains the pure business logic for scope completion.
// This is part of the Functional Core - no I/O, only pure functions.
package completion

// ScopeStatus represents the possible states of a scope (series or study).
type ScopeStatus string

const (
	StatusOpen      ScopeStatus = "open"
	StatusCompleted ScopeStatus = "completed"
)

// Progress report status values emitted on completion transitions.
const (
	ProgressWIP  = "wip"
	ProgressDone = "done"
)

// ScopeState tracks the completion flags for one study and its series.
// Completion is monotonic: once a flag is set it never resets within this
// engine (administrative reset is out of scope). A new study starts Open
// with no completed series.
type ScopeState struct {
	StudyUID        string
	ActiveSeriesUID string
	StudyCompleted  bool
	CompletedSeries map[string]bool
}

// NewScopeState returns the initial state for a newly observed study.
func NewScopeState(studyUID string) ScopeState {
	return ScopeState{
		StudyUID:        studyUID,
		CompletedSeries: map[string]bool{},
	}
}

// SeriesLocked reports whether mutation and synchronization are sealed for
// the given series. A completed study implicitly seals every member series.
func (s ScopeState) SeriesLocked(seriesUID string) bool {
	if s.StudyCompleted {
		return true
	}
	return s.CompletedSeries[seriesUID]
}

// StudyLocked reports whether the study-level scope is sealed.
func (s ScopeState) StudyLocked() bool {
	return s.StudyCompleted
}

// SeriesStatus returns the completion status for a single series.
func (s ScopeState) SeriesStatus(seriesUID string) ScopeStatus {
	if s.SeriesLocked(seriesUID) {
		return StatusCompleted
	}
	return StatusOpen
}

// MarkSeriesComplete applies the one-directional series transition and
// returns the new state. Marking an already-completed series is a no-op.
// The input state is not modified.
func MarkSeriesComplete(s ScopeState, seriesUID string) ScopeState {
	out := s
	out.CompletedSeries = make(map[string]bool, len(s.CompletedSeries)+1)
	for uid, done := range s.CompletedSeries {
		out.CompletedSeries[uid] = done
	}
	out.CompletedSeries[seriesUID] = true
	return out
}

// MarkStudyComplete applies the one-directional study transition and returns
// the new state. The input state is not modified.
func MarkStudyComplete(s ScopeState) ScopeState {
	out := s
	out.StudyCompleted = true
	return out
}

// WithActiveSeries returns the state focused on the given series.
// Switching the active series never touches completion flags.
func (s ScopeState) WithActiveSeries(seriesUID string) ScopeState {
	out := s
	out.ActiveSeriesUID = seriesUID
	return out
}
