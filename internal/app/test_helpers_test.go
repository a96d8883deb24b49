package app

import (
	"context"
	"sync"

	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// fakeSnapshotSink records published snapshots.
type fakeSnapshotSink struct {
	mu        sync.Mutex
	snapshots []secondary.Snapshot
}

func (f *fakeSnapshotSink) Publish(ctx context.Context, snap secondary.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func (f *fakeSnapshotSink) all() []secondary.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]secondary.Snapshot(nil), f.snapshots...)
}

// fakeAlertSink records surfaced warnings.
type fakeAlertSink struct {
	mu       sync.Mutex
	warnings []secondary.Warning
}

func (f *fakeAlertSink) Warn(ctx context.Context, warning secondary.Warning) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, warning)
	return nil
}

func (f *fakeAlertSink) all() []secondary.Warning {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]secondary.Warning(nil), f.warnings...)
}

// fakeProgressReporter records progress reports.
type fakeProgressReporter struct {
	mu      sync.Mutex
	reports []secondary.ProgressReport
}

func (f *fakeProgressReporter) Report(ctx context.Context, report secondary.ProgressReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeProgressReporter) all() []secondary.ProgressReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]secondary.ProgressReport(nil), f.reports...)
}

// fakeWorklist answers validity and progress queries from canned state.
type fakeWorklist struct {
	mu        sync.Mutex
	valid     map[string]bool // keyed by seriesUID
	validErr  error
	progress  []secondary.SeriesProgress
	progErr   error
	validated []string // seriesUIDs queried, in order
	// onValidate runs inside ValidateSeries before it returns, letting a
	// test move the active scope mid-check.
	onValidate func()
}

func (f *fakeWorklist) ValidateSeries(ctx context.Context, studyUID, seriesUID string) (bool, error) {
	f.mu.Lock()
	f.validated = append(f.validated, seriesUID)
	hook := f.onValidate
	err := f.validErr
	ok := f.valid[seriesUID]
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (f *fakeWorklist) FetchProgress(ctx context.Context, username, studyUID string) ([]secondary.SeriesProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.progErr != nil {
		return nil, f.progErr
	}
	return append([]secondary.SeriesProgress(nil), f.progress...), nil
}

// fakeCallerProvider returns a fixed identity.
type fakeCallerProvider struct {
	caller secondary.Caller
	ready  chan struct{}
}

func newFakeCallerProvider(username, role string) *fakeCallerProvider {
	ready := make(chan struct{})
	close(ready)
	return &fakeCallerProvider{
		caller: secondary.Caller{Username: username, Role: role},
		ready:  ready,
	}
}

func (f *fakeCallerProvider) Caller(ctx context.Context) (*secondary.Caller, error) {
	c := f.caller
	return &c, nil
}

func (f *fakeCallerProvider) Ready() <-chan struct{} {
	return f.ready
}

// fakeSessionRepo is an in-memory SessionRepository.
type fakeSessionRepo struct {
	mu      sync.Mutex
	records map[string]*secondary.RecordRow
	scopes  map[string]*secondary.ScopeRow
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		records: make(map[string]*secondary.RecordRow),
		scopes:  make(map[string]*secondary.ScopeRow),
	}
}

func (f *fakeSessionRepo) SaveRecord(ctx context.Context, row *secondary.RecordRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *row
	f.records[row.UID] = &clone
	return nil
}

func (f *fakeSessionRepo) DeleteRecord(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, uid)
	return nil
}

func (f *fakeSessionRepo) ListRecords(ctx context.Context, studyUID string) ([]*secondary.RecordRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*secondary.RecordRow
	for _, row := range f.records {
		if row.StudyUID == studyUID {
			clone := *row
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) SaveScope(ctx context.Context, row *secondary.ScopeRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *row
	clone.CompletedSeries = append([]string(nil), row.CompletedSeries...)
	f.scopes[row.StudyUID] = &clone
	return nil
}

func (f *fakeSessionRepo) GetScope(ctx context.Context, studyUID string) (*secondary.ScopeRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.scopes[studyUID]
	if !ok {
		return nil, nil
	}
	clone := *row
	clone.CompletedSeries = append([]string(nil), row.CompletedSeries...)
	return &clone, nil
}

// fakeActivityLog records notices for assertions.
type fakeActivityLog struct {
	mu      sync.Mutex
	notices []string
	actions []string
}

func (f *fakeActivityLog) LogCreate(ctx context.Context, entityType, entityID string) error {
	return f.record("create", "")
}

func (f *fakeActivityLog) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return f.record("update", "")
}

func (f *fakeActivityLog) LogDelete(ctx context.Context, entityType, entityID string) error {
	return f.record("delete", "")
}

func (f *fakeActivityLog) LogNotice(ctx context.Context, entityType, entityID, notice string) error {
	return f.record("notice", notice)
}

func (f *fakeActivityLog) record(action, notice string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	if notice != "" {
		f.notices = append(f.notices, notice)
	}
	return nil
}

func (f *fakeActivityLog) allNotices() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.notices...)
}
