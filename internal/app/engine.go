// Package app contains the application services that drive the
// annotation synchronization pipeline. Services orchestrate the pure
// rules in internal/core through the secondary ports.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/carjohnson/annosync/internal/core/annotation"
	"github.com/carjohnson/annosync/internal/core/completion"
	"github.com/carjohnson/annosync/internal/metrics"
	"github.com/carjohnson/annosync/internal/ports/primary"
	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// EngineOptions configures a SyncEngine.
type EngineOptions struct {
	StudyUID string
	// ScopeIdentity is the opaque tag stamped onto outbound snapshots.
	// Defaults to StudyUID.
	ScopeIdentity string
	SettleWindow  time.Duration

	Store    secondary.RecordStore
	Session  secondary.SessionRepository // optional write-through persistence
	Sink     secondary.SnapshotSink
	Throttle *AlertThrottle
	Activity secondary.ActivityLog // optional audit trail
	Callers  secondary.CallerProvider
}

// SyncEngine implements primary.SyncService. It is the single owner of
// the record store and the scope state: change batches mutate the store
// immediately (subject to the completion lock) while the evaluation of
// the resulting state is debounced, so a burst of correlated
// notifications settles to one outcome.
type SyncEngine struct {
	studyUID      string
	scopeIdentity string
	settle        time.Duration

	store    secondary.RecordStore
	session  secondary.SessionRepository
	sink     secondary.SnapshotSink
	throttle *AlertThrottle
	activity secondary.ActivityLog
	callers  secondary.CallerProvider

	mu         sync.Mutex
	scope      completion.ScopeState
	positions  map[string]int
	nextPos    int
	timer      *time.Timer
	generation uint64
	pending    bool
	// lastGuard carries the caller context of the most recent batch into
	// the debounced evaluation, where the synchronization gate runs.
	lastGuard  completion.GuardContext
	lastSeries string
	// redispatched bounds the first-alert reentry pass to one extra
	// evaluation for the lifetime of the session.
	redispatched bool
	wasEmpty     bool
	lastEmitted  int
	closed       bool
}

// NewSyncEngine creates a sync engine for a study session.
func NewSyncEngine(opts EngineOptions) *SyncEngine {
	scopeIdentity := opts.ScopeIdentity
	if scopeIdentity == "" {
		scopeIdentity = opts.StudyUID
	}
	settle := opts.SettleWindow
	if settle <= 0 {
		settle = 120 * time.Millisecond
	}
	return &SyncEngine{
		studyUID:      opts.StudyUID,
		scopeIdentity: scopeIdentity,
		settle:        settle,
		store:         opts.Store,
		session:       opts.Session,
		sink:          opts.Sink,
		throttle:      opts.Throttle,
		activity:      opts.Activity,
		callers:       opts.Callers,
		scope:         completion.NewScopeState(opts.StudyUID),
		positions:     make(map[string]int),
	}
}

// Restore loads persisted session state into the engine. Call once at
// startup, before the first OnChange.
func (e *SyncEngine) Restore(ctx context.Context) error {
	if e.session == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.session.ListRecords(ctx, e.studyUID)
	if err != nil {
		return fmt.Errorf("failed to restore records: %w", err)
	}
	for _, row := range rows {
		rec := annotation.Record{
			UID:       row.UID,
			SeriesUID: row.SeriesUID,
			Label:     row.Label,
			Score:     row.Score,
		}
		if row.StatsJSON != "" {
			var stats map[string]any
			if err := json.Unmarshal([]byte(row.StatsJSON), &stats); err == nil {
				rec.Stats = stats
			}
		}
		e.store.Upsert(rec)
		e.positions[row.UID] = row.Position
		if row.Position >= e.nextPos {
			e.nextPos = row.Position + 1
		}
	}

	scopeRow, err := e.session.GetScope(ctx, e.studyUID)
	if err != nil {
		return fmt.Errorf("failed to restore scope: %w", err)
	}
	if scopeRow != nil {
		state := completion.NewScopeState(e.studyUID)
		for _, uid := range scopeRow.CompletedSeries {
			state = completion.MarkSeriesComplete(state, uid)
		}
		if scopeRow.StudyCompleted {
			state = completion.MarkStudyComplete(state)
		}
		state.ActiveSeriesUID = e.scope.ActiveSeriesUID
		e.scope = state
	}
	return nil
}

// OnChange ingests a batch of change notifications. Duplicates within
// the batch collapse first-seen-wins; the store mutation is immediate
// and the evaluation is debounced.
func (e *SyncEngine) OnChange(ctx context.Context, batch []primary.ChangeNotification) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("sync engine is closed")
	}

	guard := e.guardContext(ctx)
	e.lastGuard = guard
	// Emptiness is captured when the settle window opens, not per batch;
	// the first-alert redispatch must survive a follow-up batch arriving
	// inside the same window.
	if !e.pending {
		e.wasEmpty = e.store.Len() == 0
	}

	deduped := annotation.Dedupe(batch, func(c primary.ChangeNotification) string { return c.UID })
	dropped := -len(deduped)
	for _, change := range batch {
		if change.UID != "" {
			dropped++
		}
	}
	if dropped > 0 {
		metrics.EventsDeduped.Add(float64(dropped))
	}
	for _, change := range deduped {
		e.applyLocked(ctx, guard, change)
	}

	e.scheduleLocked()
	return nil
}

// applyLocked applies one deduplicated change to the store, gated by
// the completion lock. A blocked mutation is a logged no-op.
func (e *SyncEngine) applyLocked(ctx context.Context, guard completion.GuardContext, change primary.ChangeNotification) {
	seriesUID := change.SeriesUID
	if seriesUID == "" {
		if existing, ok := e.store.Get(change.UID); ok {
			seriesUID = existing.SeriesUID
		} else {
			seriesUID = e.scope.ActiveSeriesUID
		}
	}
	e.lastSeries = seriesUID

	if result := completion.CanMutateRecord(guard, e.scope, seriesUID); !result.Allowed {
		metrics.MutationsBlocked.Inc()
		e.logNotice(ctx, "annotation", change.UID, result.Reason)
		return
	}

	if change.Deleted {
		e.store.Remove(change.UID)
		delete(e.positions, change.UID)
		if e.session != nil {
			_ = e.session.DeleteRecord(ctx, change.UID)
		}
		e.logDelete(ctx, "annotation", change.UID)
		metrics.EventsAccepted.Inc()
		return
	}

	_, existed := e.store.Get(change.UID)
	rec := annotation.Record{
		UID:       change.UID,
		SeriesUID: seriesUID,
		Label:     change.Label,
		Stats:     change.Stats,
		Score:     change.Score,
	}
	e.store.Upsert(rec)

	pos, ok := e.positions[change.UID]
	if !ok {
		pos = e.nextPos
		e.nextPos++
		e.positions[change.UID] = pos
	}
	if e.session != nil {
		statsJSON := ""
		if len(change.Stats) > 0 {
			if b, err := json.Marshal(change.Stats); err == nil {
				statsJSON = string(b)
			}
		}
		_ = e.session.SaveRecord(ctx, &secondary.RecordRow{
			UID:       change.UID,
			StudyUID:  e.studyUID,
			SeriesUID: seriesUID,
			Label:     change.Label,
			StatsJSON: statsJSON,
			Score:     change.Score,
			Position:  pos,
		})
	}

	if existed {
		e.logUpdate(ctx, "annotation", change.UID)
	} else {
		e.logCreate(ctx, "annotation", change.UID)
	}
	metrics.EventsAccepted.Inc()
}

// scheduleLocked restarts the settle window. A burst keeps pushing the
// evaluation out until input quiesces; only the final state is
// evaluated.
func (e *SyncEngine) scheduleLocked() {
	e.generation++
	gen := e.generation
	if e.timer != nil {
		e.timer.Stop()
	}
	e.pending = true
	e.timer = time.AfterFunc(e.settle, func() {
		e.settled(gen)
	})
}

func (e *SyncEngine) settled(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.generation {
		return
	}
	e.pending = false
	e.evaluateLocked(context.Background(), false)
}

// evaluateLocked runs one pipeline evaluation against the current store
// state: classify, then either emit a snapshot or feed the invalid set
// to the alert throttle.
func (e *SyncEngine) evaluateLocked(ctx context.Context, reentry bool) {
	metrics.Evaluations.Inc()

	classified := annotation.Classify(e.store.List())

	if !classified.AllScored() {
		decision := e.throttle.Evaluate(ctx, classified.InvalidUIDs())
		// A first annotation drawn into an empty session can fire and then
		// go silent while the user keeps working without scoring. One
		// synthesized follow-up pass keeps the throttle honest; the
		// unchanged set suppresses, so the reentry cannot cascade.
		if decision.Fire && e.wasEmpty && !reentry && !e.redispatched {
			e.redispatched = true
			e.evaluateLocked(ctx, true)
		}
		return
	}

	e.throttle.Evaluate(ctx, nil)

	if len(classified.Syncable) == 0 {
		return
	}
	if result := completion.CanSynchronize(e.lastGuard, e.scope, e.lastSeries); !result.Allowed {
		e.logNotice(ctx, "snapshot", e.studyUID, result.Reason)
		return
	}

	snap := secondary.Snapshot{
		Records:       classified.Syncable,
		ScopeIdentity: e.scopeIdentity,
	}
	if err := e.sink.Publish(ctx, snap); err != nil {
		e.logNotice(ctx, "snapshot", e.studyUID, fmt.Sprintf("snapshot delivery failed: %v", err))
		return
	}
	e.lastEmitted = len(snap.Records)
	metrics.SnapshotsEmitted.Inc()
}

// Flush forces an immediate evaluation, bypassing the remaining settle
// window.
func (e *SyncEngine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("sync engine is closed")
	}
	e.generation++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.pending = false
	e.evaluateLocked(ctx, false)
	return nil
}

// Status reports the engine's current view of the session.
func (e *SyncEngine) Status(ctx context.Context) (*primary.EngineStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	classified := annotation.Classify(e.store.List())
	completedSeries := make([]string, 0, len(e.scope.CompletedSeries))
	for uid := range e.scope.CompletedSeries {
		completedSeries = append(completedSeries, uid)
	}

	return &primary.EngineStatus{
		StudyUID:          e.studyUID,
		ActiveSeriesUID:   e.scope.ActiveSeriesUID,
		StudyCompleted:    e.scope.StudyCompleted,
		CompletedSeries:   completedSeries,
		RecordCount:       e.store.Len(),
		SyncableCount:     len(classified.Syncable),
		InvalidCount:      len(classified.Invalid),
		PendingEvaluation: e.pending,
		LastEmittedCount:  e.lastEmitted,
	}, nil
}

// Close stops the engine's timers.
func (e *SyncEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.throttle != nil {
		e.throttle.Close()
	}
}

// classifySeries classifies only the records owned by one series. The
// completion service uses it to note unscored leftovers at seal time.
func (e *SyncEngine) classifySeries(seriesUID string) annotation.Classification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return annotation.Classify(e.store.ListBySeries(seriesUID))
}

// scopeSnapshot returns a copy of the current scope state for the
// completion service.
func (e *SyncEngine) scopeSnapshot() completion.ScopeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope
}

// replaceScope installs a new scope state and persists it. Only the
// completion service calls this.
func (e *SyncEngine) replaceScope(ctx context.Context, state completion.ScopeState) error {
	e.mu.Lock()
	e.scope = state
	e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	completedSeries := make([]string, 0, len(state.CompletedSeries))
	for uid := range state.CompletedSeries {
		completedSeries = append(completedSeries, uid)
	}
	return e.session.SaveScope(ctx, &secondary.ScopeRow{
		StudyUID:        state.StudyUID,
		StudyCompleted:  state.StudyCompleted,
		CompletedSeries: completedSeries,
	})
}

// setActiveSeries switches the engine's focus without persisting; the
// active series is session-transient.
func (e *SyncEngine) setActiveSeries(seriesUID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scope = e.scope.WithActiveSeries(seriesUID)
}

// guardContext resolves the caller into a guard context. An unresolved
// identity degrades to an anonymous reader so the pipeline keeps
// flowing; the completion services are stricter.
func (e *SyncEngine) guardContext(ctx context.Context) completion.GuardContext {
	if e.callers == nil {
		return completion.GuardContext{Role: completion.RoleReader}
	}
	caller, err := e.callers.Caller(ctx)
	if err != nil {
		return completion.GuardContext{Role: completion.RoleReader}
	}
	return completion.GuardContext{Role: completion.Role(caller.Role), Username: caller.Username}
}

func (e *SyncEngine) logCreate(ctx context.Context, entityType, entityID string) {
	if e.activity != nil {
		_ = e.activity.LogCreate(ctx, entityType, entityID)
	}
}

func (e *SyncEngine) logUpdate(ctx context.Context, entityType, entityID string) {
	if e.activity != nil {
		_ = e.activity.LogUpdate(ctx, entityType, entityID, "", "", "")
	}
}

func (e *SyncEngine) logDelete(ctx context.Context, entityType, entityID string) {
	if e.activity != nil {
		_ = e.activity.LogDelete(ctx, entityType, entityID)
	}
}

func (e *SyncEngine) logNotice(ctx context.Context, entityType, entityID, notice string) {
	if e.activity != nil {
		_ = e.activity.LogNotice(ctx, entityType, entityID, notice)
	}
}

// Ensure SyncEngine implements the interface
var _ primary.SyncService = (*SyncEngine)(nil)
