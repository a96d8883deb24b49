package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/carjohnson/annosync/internal/adapters/memory"
	"github.com/carjohnson/annosync/internal/ports/primary"
	"github.com/carjohnson/annosync/internal/ports/secondary"
)

type completionFixture struct {
	engine   *SyncEngine
	service  *CompletionServiceImpl
	worklist *fakeWorklist
	progress *fakeProgressReporter
	activity *fakeActivityLog
	session  *fakeSessionRepo
}

func newCompletionFixture(t *testing.T, username, role string) *completionFixture {
	t.Helper()

	session := newFakeSessionRepo()
	activity := &fakeActivityLog{}
	engine := NewSyncEngine(EngineOptions{
		StudyUID:     "study-1",
		SettleWindow: time.Hour,
		Store:        memory.NewRecordStore(),
		Session:      session,
		Sink:         &fakeSnapshotSink{},
		Throttle:     NewAlertThrottle(&fakeAlertSink{}, time.Hour),
		Activity:     activity,
		Callers:      newFakeCallerProvider(username, role),
	})
	t.Cleanup(engine.Close)

	worklist := &fakeWorklist{valid: map[string]bool{}}
	progress := &fakeProgressReporter{}
	service := NewCompletionService(engine, worklist, progress, activity, newFakeCallerProvider(username, role))

	return &completionFixture{
		engine:   engine,
		service:  service,
		worklist: worklist,
		progress: progress,
		activity: activity,
		session:  session,
	}
}

func TestCompleteSeries(t *testing.T) {
	f := newCompletionFixture(t, "alice", "reader")
	f.worklist.valid["series-1"] = true
	ctx := context.Background()

	resp, err := f.service.CompleteSeries(ctx, primary.CompleteSeriesRequest{SeriesUID: "series-1"})
	if err != nil {
		t.Fatalf("failed to complete series: %v", err)
	}
	if !resp.Completed {
		t.Fatal("expected series completed")
	}
	if !f.engine.scopeSnapshot().SeriesLocked("series-1") {
		t.Error("expected series-1 locked after completion")
	}

	// Progress reported as done.
	reports := f.progress.all()
	if len(reports) != 1 {
		t.Fatalf("expected 1 progress report, got %d", len(reports))
	}
	if reports[0].SeriesUID != "series-1" || reports[0].Status != "done" {
		t.Errorf("unexpected report %+v", reports[0])
	}

	// Persisted write-through.
	scope, err := f.session.GetScope(ctx, "study-1")
	if err != nil {
		t.Fatalf("failed to read persisted scope: %v", err)
	}
	if scope == nil || len(scope.CompletedSeries) != 1 || scope.CompletedSeries[0] != "series-1" {
		t.Errorf("expected persisted completed series, got %+v", scope)
	}
}

func TestCompleteSeriesAlreadyCompleted(t *testing.T) {
	f := newCompletionFixture(t, "alice", "reader")
	f.worklist.valid["series-1"] = true
	ctx := context.Background()

	if _, err := f.service.CompleteSeries(ctx, primary.CompleteSeriesRequest{SeriesUID: "series-1"}); err != nil {
		t.Fatalf("failed to complete series: %v", err)
	}
	resp, err := f.service.CompleteSeries(ctx, primary.CompleteSeriesRequest{SeriesUID: "series-1"})
	if err != nil {
		t.Fatalf("expected re-completion to be a no-op, got %v", err)
	}
	if !resp.AlreadyCompleted || resp.Completed {
		t.Errorf("expected AlreadyCompleted response, got %+v", resp)
	}
	if len(f.worklist.validated) != 1 {
		t.Errorf("expected no second worklist check, got %d", len(f.worklist.validated))
	}
}

func TestCompleteSeriesNotValidated(t *testing.T) {
	f := newCompletionFixture(t, "alice", "reader")
	// worklist reports the series unknown
	ctx := context.Background()

	resp, err := f.service.CompleteSeries(ctx, primary.CompleteSeriesRequest{SeriesUID: "series-9"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.NotValidated {
		t.Error("expected NotValidated for unknown series")
	}
	if f.engine.scopeSnapshot().SeriesLocked("series-9") {
		t.Error("expected series-9 to stay open")
	}
}

func TestCompleteSeriesFailsOpenOnWorklistError(t *testing.T) {
	f := newCompletionFixture(t, "alice", "reader")
	f.worklist.validErr = errors.New("connection refused")
	ctx := context.Background()

	resp, err := f.service.CompleteSeries(ctx, primary.CompleteSeriesRequest{SeriesUID: "series-1"})
	if err != nil {
		t.Fatalf("expected fail-open, got error %v", err)
	}
	if !resp.NotValidated {
		t.Error("expected NotValidated on worklist failure")
	}
	if len(f.activity.allNotices()) == 0 {
		t.Error("expected the failure to be logged as a notice")
	}
}

func TestCompleteSeriesDiscardsStaleResult(t *testing.T) {
	f := newCompletionFixture(t, "alice", "reader")
	f.worklist.valid["series-1"] = true
	f.engine.setActiveSeries("series-1")
	// The user switches series while the validity check is in flight.
	f.worklist.onValidate = func() {
		f.engine.setActiveSeries("series-2")
	}
	ctx := context.Background()

	resp, err := f.service.CompleteSeries(ctx, primary.CompleteSeriesRequest{SeriesUID: "series-1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.Stale {
		t.Fatal("expected stale result to be discarded")
	}
	if f.engine.scopeSnapshot().SeriesLocked("series-1") {
		t.Error("a stale validity result must not lock the series")
	}
}

func TestCompleteSeriesNotesUnscoredLeftovers(t *testing.T) {
	f := newCompletionFixture(t, "alice", "reader")
	f.worklist.valid["series-1"] = true
	ctx := context.Background()

	// Complete but unscored annotation in the series being sealed.
	if err := f.engine.OnChange(ctx, []primary.ChangeNotification{
		{UID: "X", SeriesUID: "series-1", Stats: map[string]any{"area": 4.2}},
	}); err != nil {
		t.Fatalf("failed to ingest: %v", err)
	}

	resp, err := f.service.CompleteSeries(ctx, primary.CompleteSeriesRequest{SeriesUID: "series-1"})
	if err != nil {
		t.Fatalf("failed to complete series: %v", err)
	}
	if !resp.Completed {
		t.Fatal("expected series completed")
	}

	notices := f.activity.allNotices()
	if len(notices) != 1 {
		t.Fatalf("expected 1 notice, got %d: %v", len(notices), notices)
	}
	if !strings.Contains(notices[0], "1 unscored") {
		t.Errorf("notice = %q, want unscored leftover count", notices[0])
	}
}

func TestCompleteSeriesRejectsNonReaders(t *testing.T) {
	f := newCompletionFixture(t, "root", "administrator")

	_, err := f.service.CompleteSeries(context.Background(), primary.CompleteSeriesRequest{SeriesUID: "series-1"})
	if err == nil {
		t.Fatal("expected error for administrator caller")
	}
}

func TestCompleteStudy(t *testing.T) {
	f := newCompletionFixture(t, "root", "administrator")
	f.worklist.progress = []secondary.SeriesProgress{
		{SeriesUID: "series-1", Status: "done"},
		{SeriesUID: "series-2", Status: "wip"},
	}
	ctx := context.Background()

	resp, err := f.service.CompleteStudy(ctx, primary.CompleteStudyRequest{Confirmed: true})
	if err != nil {
		t.Fatalf("failed to complete study: %v", err)
	}
	if !resp.Completed {
		t.Fatal("expected study completed")
	}
	if len(resp.PendingSeries) != 1 || resp.PendingSeries[0] != "series-2" {
		t.Errorf("expected series-2 pending, got %v", resp.PendingSeries)
	}

	scope := f.engine.scopeSnapshot()
	if !scope.StudyLocked() {
		t.Error("expected study locked")
	}
	// Study completion seals every member series.
	if !scope.SeriesLocked("series-1") || !scope.SeriesLocked("series-99") {
		t.Error("expected study lock to seal all series")
	}
}

func TestCompleteStudyRequiresConfirmation(t *testing.T) {
	f := newCompletionFixture(t, "root", "administrator")

	_, err := f.service.CompleteStudy(context.Background(), primary.CompleteStudyRequest{Confirmed: false})
	if err == nil {
		t.Fatal("expected error without confirmation")
	}
	if f.engine.scopeSnapshot().StudyLocked() {
		t.Error("expected study to stay open")
	}
}

func TestCompleteStudyRejectsReaders(t *testing.T) {
	f := newCompletionFixture(t, "alice", "reader")

	_, err := f.service.CompleteStudy(context.Background(), primary.CompleteStudyRequest{Confirmed: true})
	if err == nil {
		t.Fatal("expected error for reader caller")
	}
}

func TestCompleteStudyFailsOpenOnProgressError(t *testing.T) {
	f := newCompletionFixture(t, "root", "administrator")
	f.worklist.progErr = errors.New("worklist down")
	ctx := context.Background()

	resp, err := f.service.CompleteStudy(ctx, primary.CompleteStudyRequest{Confirmed: true})
	if err != nil {
		t.Fatalf("expected completion despite progress failure, got %v", err)
	}
	if !resp.Completed {
		t.Error("expected study completed")
	}
	if len(resp.PendingSeries) != 0 {
		t.Errorf("expected unknown pending list to be empty, got %v", resp.PendingSeries)
	}
	if len(f.activity.allNotices()) == 0 {
		t.Error("expected the failure to be logged as a notice")
	}
}

func TestCompleteStudyAlreadyCompleted(t *testing.T) {
	f := newCompletionFixture(t, "root", "administrator")
	ctx := context.Background()

	if _, err := f.service.CompleteStudy(ctx, primary.CompleteStudyRequest{Confirmed: true}); err != nil {
		t.Fatalf("failed to complete study: %v", err)
	}
	resp, err := f.service.CompleteStudy(ctx, primary.CompleteStudyRequest{Confirmed: true})
	if err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if !resp.AlreadyCompleted {
		t.Errorf("expected AlreadyCompleted, got %+v", resp)
	}
}

func TestSetActiveSeries(t *testing.T) {
	f := newCompletionFixture(t, "alice", "reader")

	if err := f.service.SetActiveSeries(context.Background(), "series-3"); err != nil {
		t.Fatalf("failed to set active series: %v", err)
	}
	if got := f.engine.scopeSnapshot().ActiveSeriesUID; got != "series-3" {
		t.Errorf("expected active series series-3, got %s", got)
	}

	if err := f.service.SetActiveSeries(context.Background(), ""); err == nil {
		t.Error("expected error for empty series UID")
	}
}
