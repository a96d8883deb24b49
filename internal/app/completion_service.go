package app

import (
	"context"
	"fmt"

	"github.com/carjohnson/annosync/internal/core/completion"
	"github.com/carjohnson/annosync/internal/metrics"
	"github.com/carjohnson/annosync/internal/ports/primary"
	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// CompletionServiceImpl implements the CompletionService interface.
// Scope state stays owned by the engine; this service drives the
// one-directional transitions through it.
type CompletionServiceImpl struct {
	engine   *SyncEngine
	worklist secondary.WorklistClient
	progress secondary.ProgressReporter
	activity secondary.ActivityLog
	callers  secondary.CallerProvider
}

// NewCompletionService creates a new CompletionService with injected
// dependencies.
func NewCompletionService(
	engine *SyncEngine,
	worklist secondary.WorklistClient,
	progress secondary.ProgressReporter,
	activity secondary.ActivityLog,
	callers secondary.CallerProvider,
) *CompletionServiceImpl {
	return &CompletionServiceImpl{
		engine:   engine,
		worklist: worklist,
		progress: progress,
		activity: activity,
		callers:  callers,
	}
}

// CompleteSeries validates the series against the worklist and marks it
// complete. The worklist check is asynchronous; a result that resolves
// after the active scope moved on is discarded rather than applied to
// the wrong series.
func (s *CompletionServiceImpl) CompleteSeries(ctx context.Context, req primary.CompleteSeriesRequest) (*primary.CompleteSeriesResponse, error) {
	caller, err := s.resolveCaller(ctx)
	if err != nil {
		return nil, err
	}
	guard := completion.GuardContext{Role: completion.Role(caller.Role), Username: caller.Username}

	scope := s.engine.scopeSnapshot()
	seriesUID := req.SeriesUID
	if seriesUID == "" {
		seriesUID = scope.ActiveSeriesUID
	}
	if seriesUID == "" {
		return nil, fmt.Errorf("no series selected")
	}

	if result := completion.CanCompleteSeries(guard, scope, seriesUID); !result.Allowed {
		return nil, result.Error()
	}
	if scope.SeriesLocked(seriesUID) {
		return &primary.CompleteSeriesResponse{AlreadyCompleted: true}, nil
	}

	// Capture the scope identity at dispatch time. The validity check may
	// resolve after the user has moved to a different series; a late
	// result must not lock anything.
	dispatchedActive := scope.ActiveSeriesUID

	validated, err := s.worklist.ValidateSeries(ctx, scope.StudyUID, seriesUID)
	if err != nil {
		// Fail open: a transient worklist failure reads as "not yet
		// validated", never as an error surfaced to the caller.
		s.logNotice(ctx, "series", seriesUID, fmt.Sprintf("validity check failed, treating as not validated: %v", err))
		return &primary.CompleteSeriesResponse{NotValidated: true}, nil
	}

	current := s.engine.scopeSnapshot()
	if current.ActiveSeriesUID != dispatchedActive {
		metrics.StaleResultsDropped.Inc()
		s.logNotice(ctx, "series", seriesUID, "validity result discarded: active scope changed during check")
		return &primary.CompleteSeriesResponse{Stale: true}, nil
	}

	if !validated {
		return &primary.CompleteSeriesResponse{NotValidated: true}, nil
	}
	if current.SeriesLocked(seriesUID) {
		return &primary.CompleteSeriesResponse{AlreadyCompleted: true}, nil
	}

	next := completion.MarkSeriesComplete(current, seriesUID)
	if err := s.engine.replaceScope(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to persist series completion: %w", err)
	}

	// The lock does not require every annotation to be scored; leave a
	// trace when the series seals with unscored leftovers.
	if c := s.engine.classifySeries(seriesUID); !c.AllScored() {
		s.logNotice(ctx, "series", seriesUID, fmt.Sprintf("completed with %d unscored annotation(s)", len(c.Invalid)))
	}

	if s.activity != nil {
		_ = s.activity.LogUpdate(ctx, "series", seriesUID, "status", string(completion.StatusOpen), string(completion.StatusCompleted))
	}
	if s.progress != nil {
		_ = s.progress.Report(ctx, secondary.ProgressReport{
			Username:  caller.Username,
			StudyUID:  current.StudyUID,
			SeriesUID: seriesUID,
			Status:    completion.ProgressDone,
		})
	}

	return &primary.CompleteSeriesResponse{Completed: true}, nil
}

// CompleteStudy marks the whole study complete, sealing every member
// series. Administrator-only, and only with explicit confirmation.
func (s *CompletionServiceImpl) CompleteStudy(ctx context.Context, req primary.CompleteStudyRequest) (*primary.CompleteStudyResponse, error) {
	caller, err := s.resolveCaller(ctx)
	if err != nil {
		return nil, err
	}
	guard := completion.GuardContext{Role: completion.Role(caller.Role), Username: caller.Username}

	if result := completion.CanCompleteStudy(guard, req.Confirmed); !result.Allowed {
		return nil, result.Error()
	}

	scope := s.engine.scopeSnapshot()
	if scope.StudyLocked() {
		return &primary.CompleteStudyResponse{AlreadyCompleted: true}, nil
	}

	// Best-effort progress survey. A failure here must not block the
	// administrator; the study completes with the pending list unknown.
	var pending []string
	if s.worklist != nil {
		progress, err := s.worklist.FetchProgress(ctx, caller.Username, scope.StudyUID)
		if err != nil {
			s.logNotice(ctx, "study", scope.StudyUID, fmt.Sprintf("progress fetch failed, completing anyway: %v", err))
		} else {
			for _, p := range progress {
				if p.Status != completion.ProgressDone {
					pending = append(pending, p.SeriesUID)
				}
			}
		}
	}

	next := completion.MarkStudyComplete(scope)
	if err := s.engine.replaceScope(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to persist study completion: %w", err)
	}

	if s.activity != nil {
		_ = s.activity.LogUpdate(ctx, "study", scope.StudyUID, "status", string(completion.StatusOpen), string(completion.StatusCompleted))
	}
	if s.progress != nil {
		_ = s.progress.Report(ctx, secondary.ProgressReport{
			Username: caller.Username,
			StudyUID: scope.StudyUID,
			Status:   completion.ProgressDone,
		})
	}

	return &primary.CompleteStudyResponse{Completed: true, PendingSeries: pending}, nil
}

// SetActiveSeries switches the engine's active series focus.
func (s *CompletionServiceImpl) SetActiveSeries(ctx context.Context, seriesUID string) error {
	if seriesUID == "" {
		return fmt.Errorf("series UID is required")
	}
	s.engine.setActiveSeries(seriesUID)
	return nil
}

func (s *CompletionServiceImpl) resolveCaller(ctx context.Context) (*secondary.Caller, error) {
	if s.callers == nil {
		return nil, fmt.Errorf("caller provider is not configured")
	}
	caller, err := s.callers.Caller(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve caller identity: %w", err)
	}
	return caller, nil
}

func (s *CompletionServiceImpl) logNotice(ctx context.Context, entityType, entityID, notice string) {
	if s.activity != nil {
		_ = s.activity.LogNotice(ctx, entityType, entityID, notice)
	}
}

// Ensure CompletionServiceImpl implements the interface
var _ primary.CompletionService = (*CompletionServiceImpl)(nil)
