// Package wire provides dependency injection for the annosync daemon.
// It creates singleton services with lazy initialization.
package wire

import (
	"fmt"
	"sync"

	"github.com/carjohnson/annosync/internal/adapters/console"
	"github.com/carjohnson/annosync/internal/adapters/memory"
	"github.com/carjohnson/annosync/internal/adapters/persistence"
	"github.com/carjohnson/annosync/internal/adapters/postgres"
	"github.com/carjohnson/annosync/internal/adapters/sqlite"
	"github.com/carjohnson/annosync/internal/adapters/worklist"
	"github.com/carjohnson/annosync/internal/adapters/ws"
	"github.com/carjohnson/annosync/internal/app"
	"github.com/carjohnson/annosync/internal/config"
	"github.com/carjohnson/annosync/internal/db"
	"github.com/carjohnson/annosync/internal/ports/primary"
	"github.com/carjohnson/annosync/internal/ports/secondary"
)

var (
	syncService       primary.SyncService
	completionService primary.CompletionService
	activityService   primary.ActivityService
	syncEngine        *app.SyncEngine
	once              sync.Once
	initErr           error
)

// Init builds the full service graph from configuration. Safe to call
// more than once; only the first call does work.
func Init(daemonCfg *config.DaemonConfig, workspaceCfg *config.Config) error {
	once.Do(func() {
		initErr = initServices(daemonCfg, workspaceCfg)
	})
	return initErr
}

// SyncService returns the singleton SyncService instance.
func SyncService() primary.SyncService {
	return syncService
}

// CompletionService returns the singleton CompletionService instance.
func CompletionService() primary.CompletionService {
	return completionService
}

// ActivityService returns the singleton ActivityService instance.
func ActivityService() primary.ActivityService {
	return activityService
}

// Engine exposes the concrete engine for lifecycle calls (Restore/Close).
func Engine() *app.SyncEngine {
	return syncEngine
}

// initServices initializes all services and their dependencies.
func initServices(daemonCfg *config.DaemonConfig, workspaceCfg *config.Config) error {
	var (
		sessionRepo  secondary.SessionRepository
		activityRepo secondary.ActivityRepository
		activityLog  secondary.ActivityLog
	)

	switch daemonCfg.Store.Backend {
	case "postgres":
		repo, err := postgres.Open(daemonCfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		sessionRepo = repo
		// The audit trail stays local even with a shared record store.
		database, err := db.GetDB(daemonCfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		activityRepo = sqlite.NewActivityRepository(database)
	case "sqlite", "":
		database, err := db.GetDB(daemonCfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		sessionRepo = sqlite.NewSessionRepository(database)
		activityRepo = sqlite.NewActivityRepository(database)
	default:
		return fmt.Errorf("unknown store backend %q", daemonCfg.Store.Backend)
	}
	activityLog = sqlite.NewLogWriterAdapter(activityRepo)

	var snapshotSink secondary.SnapshotSink
	if daemonCfg.Sink.URL != "" {
		snapshotSink = ws.NewSnapshotSink(daemonCfg.Sink.URL)
	} else {
		snapshotSink = console.NewSnapshotSink()
	}

	callerProvider := persistence.NewCallerProvider()
	callerProvider.SetCaller(secondary.Caller{
		Username: workspaceCfg.Username,
		Role:     workspaceCfg.Role,
	})

	throttle := app.NewAlertThrottle(console.NewAlertSink(), daemonCfg.AlertCooldown())

	syncEngine = app.NewSyncEngine(app.EngineOptions{
		StudyUID:      workspaceCfg.StudyUID,
		ScopeIdentity: workspaceCfg.PatientTag,
		SettleWindow:  daemonCfg.SettleWindow(),
		Store:         memory.NewRecordStore(),
		Session:       sessionRepo,
		Sink:          snapshotSink,
		Throttle:      throttle,
		Activity:      activityLog,
		Callers:       callerProvider,
	})

	worklistClient := worklist.NewClient(worklist.ClientOptions{
		BaseURL: daemonCfg.Worklist.BaseURL,
		Token:   daemonCfg.Worklist.Token,
	})

	syncService = syncEngine
	completionService = app.NewCompletionService(
		syncEngine,
		worklistClient,
		console.NewProgressReporter(),
		activityLog,
		callerProvider,
	)
	activityService = app.NewActivityService(activityRepo)
	return nil
}
