package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/sdejongh/drivemirror/pkg/ledger"
	"github.com/sdejongh/drivemirror/pkg/logging"
	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/output"
	"github.com/sdejongh/drivemirror/pkg/ratelimit"
	"github.com/sdejongh/drivemirror/pkg/remote"
	"github.com/sdejongh/drivemirror/pkg/storage"
)

// EngineConfig holds everything a mirror run needs
type EngineConfig struct {
	Operation *models.SyncOperation
	Connector remote.Connector

	// Fs is the local filesystem, the OS filesystem when nil
	Fs afero.Fs

	Formatter output.Formatter
	Writer    io.Writer
	Logger    logging.Logger
	Clock     clockwork.Clock
}

// Engine orchestrates a mirror run: preconditions, diff, plan, execute
// and ledger persistence
type Engine struct {
	operation *models.SyncOperation
	connector remote.Connector
	fs        afero.Fs
	formatter output.Formatter
	writer    io.Writer
	logger    logging.Logger
	clock     clockwork.Clock
}

// NewEngine creates a new mirror engine
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		operation: cfg.Operation,
		connector: cfg.Connector,
		fs:        cfg.Fs,
		formatter: cfg.Formatter,
		writer:    cfg.Writer,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
	}
	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.formatter == nil {
		e.formatter = output.NewHumanFormatter()
	}
	if e.writer == nil {
		e.writer = os.Stdout
	}
	if e.logger == nil {
		e.logger = logging.NewNullLogger()
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	return e
}

// Run mirrors the local root into the remote root. Precondition failures
// are returned before any task is planned. A dry run stops after planning
// and returns the plan in the report.
func (e *Engine) Run(ctx context.Context) (*models.RunReport, error) {
	if err := e.operation.Validate(); err != nil {
		return nil, err
	}
	report := e.newReport()

	local, err := e.openLocal()
	if err != nil {
		return nil, err
	}
	store, root, err := e.connect(ctx)
	if err != nil {
		return nil, err
	}
	excluder, err := e.excluder(local.Root())
	if err != nil {
		return nil, err
	}

	e.logger.Info(ctx, "Comparing trees", logging.Fields{
		"local":  e.operation.LocalRoot,
		"remote": e.operation.RemoteRoot,
	})

	differ := NewDiffer(local, store, excluder, e.logger)
	result, err := differ.Diff(ctx, local.Root(), root)
	if err != nil {
		return nil, fmt.Errorf("diff failed: %w", err)
	}

	tasks := Plan(result, e.operation.Order)
	report.RemoteOnly = result.RemoteOnly
	report.SizeMismatches = result.SizeMismatches
	report.Stats.LocalEntriesScanned = result.LocalEntriesScanned
	report.Stats.RemoteObjectsScanned = result.RemoteObjectsScanned
	report.Stats.DirsDescended = result.DirsDescended
	report.Stats.TasksPlanned = len(tasks)
	report.Stats.BytesPlanned = PlannedBytes(tasks)

	e.logger.Info(ctx, "Plan ready", logging.Fields{
		"tasks":           len(tasks),
		"bytes":           report.Stats.BytesPlanned,
		"remote_only":     len(result.RemoteOnly),
		"size_mismatches": len(result.SizeMismatches),
	})

	if e.operation.DryRun {
		report.Plan = tasks
		e.finish(report)
		return report, nil
	}

	return e.execute(ctx, report, local, store, tasks, "")
}

// Retry re-drives the failed and pending tasks of a persisted run into a
// new ledger. Tasks keep the parent folder IDs they were planned with, so
// no diff is performed.
func (e *Engine) Retry(ctx context.Context, prior *ledger.Snapshot) (*models.RunReport, error) {
	if prior == nil {
		return nil, errors.New("no ledger to retry")
	}
	if err := e.operation.Validate(); err != nil {
		return nil, err
	}
	report := e.newReport()

	tasks := prior.Leftovers()
	report.Stats.TasksPlanned = len(tasks)
	report.Stats.BytesPlanned = PlannedBytes(tasks)

	local, err := e.openLocal()
	if err != nil {
		return nil, err
	}
	store, err := e.session(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.Info(ctx, "Retrying leftovers", logging.Fields{
		"retry_of": prior.Meta.RunID,
		"tasks":    len(tasks),
	})

	if e.operation.DryRun {
		report.Plan = tasks
		e.finish(report)
		return report, nil
	}

	return e.execute(ctx, report, local, store, tasks, prior.Meta.RunID)
}

func (e *Engine) execute(ctx context.Context, report *models.RunReport, local storage.Backend, store remote.Store, tasks []models.UploadTask, retryOf string) (*models.RunReport, error) {
	ledgerDir := filepath.Join(e.operation.LedgerDir, e.operation.ID)
	ledgerStore, err := ledger.Open(ledgerDir, e.operation.LedgerFormat)
	if err != nil {
		return nil, err
	}
	defer ledgerStore.Close()

	runLedger := ledger.NewRunLedger(ledger.Meta{
		RunID:      e.operation.ID,
		LocalRoot:  e.operation.LocalRoot,
		RemoteRoot: e.operation.RemoteRoot,
		StartedAt:  report.StartTime,
		RetryOf:    retryOf,
	}, tasks)
	runLedger.SetClock(e.clock)
	report.LedgerPath = ledgerDir

	if err := ledgerStore.Save(runLedger.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to persist ledger: %w", err)
	}

	if err := e.formatter.Start(e.writer, len(tasks), report.Stats.BytesPlanned); err != nil {
		return nil, fmt.Errorf("failed to start formatter: %w", err)
	}

	checkpoint := func() error {
		return ledgerStore.Save(runLedger.Snapshot())
	}
	executor := NewExecutor(ExecutorConfig{
		Local:      local,
		Store:      store,
		Connector:  e.connector,
		Formatter:  e.formatter,
		Logger:     e.logger,
		Clock:      e.clock,
		Limiter:    ratelimit.NewLimiter(e.operation.BandwidthLimit),
		Backoff:    e.operation.Backoff,
		Checkpoint: checkpoint,
	})
	summary, execErr := executor.Execute(ctx, tasks, runLedger)

	// Every transition was already checkpointed. This final save also
	// covers an interrupted run, whose remainder stays pending.
	snap := runLedger.Snapshot()
	saveErr := ledgerStore.Save(snap)

	e.applySummary(report, summary, snap)
	e.finish(report)

	e.logger.Info(ctx, "Run finished", logging.Fields{
		"status":    string(report.Status),
		"completed": report.Stats.TasksCompleted,
		"failed":    report.Stats.TasksFailed,
		"pending":   report.Stats.TasksPending,
		"ledger":    report.LedgerPath,
	})

	if err := e.formatter.Complete(report); err != nil {
		e.logger.Warn(ctx, "Failed to write summary", logging.Fields{"error": err.Error()})
	}

	if execErr != nil {
		return report, execErr
	}
	if saveErr != nil {
		return report, fmt.Errorf("failed to persist ledger: %w", saveErr)
	}
	return report, nil
}

func (e *Engine) newReport() *models.RunReport {
	return &models.RunReport{
		RunID:      e.operation.ID,
		LocalRoot:  e.operation.LocalRoot,
		RemoteRoot: e.operation.RemoteRoot,
		DryRun:     e.operation.DryRun,
		StartTime:  e.clock.Now(),
	}
}

func (e *Engine) finish(report *models.RunReport) {
	report.EndTime = e.clock.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.Status = report.Stats.ResolveStatus()
}

func (e *Engine) applySummary(report *models.RunReport, summary *ExecutionSummary, snap *ledger.Snapshot) {
	report.Stats.TasksCompleted = len(snap.Completed)
	report.Stats.TasksFailed = len(snap.Failed)
	report.Stats.TasksPending = len(snap.Pending)

	if summary != nil {
		report.Stats.FilesUploaded = summary.FilesUploaded
		report.Stats.FoldersCreated = summary.FoldersCreated
		report.Stats.BytesUploaded = summary.BytesUploaded
		report.Stats.TransientErrors = summary.TransientErrors
		report.Stats.ConnectionErrors = summary.ConnectionErrors
		report.Stats.UnclassifiedErrors = summary.UnclassifiedErrors
		report.Stats.Reconnects = summary.Reconnects
	}

	for _, entry := range snap.Failed {
		report.Failures = append(report.Failures, models.TaskFailure{
			Source: entry.Task.Source,
			Kind:   string(entry.ErrorKind),
			Error:  entry.Error,
		})
	}
}

func (e *Engine) openLocal() (*storage.Local, error) {
	local, err := storage.NewLocal(e.fs, e.operation.LocalRoot)
	if err != nil {
		return nil, &PreconditionError{Root: e.operation.LocalRoot, Message: "local root is not a usable directory", Err: err}
	}
	return local, nil
}

// connect opens a session and resolves the remote root. A root that is
// not a folder is rejected by the differ.
func (e *Engine) connect(ctx context.Context) (remote.Store, *models.RemoteObject, error) {
	store, err := e.session(ctx)
	if err != nil {
		return nil, nil, err
	}

	root, ok, err := remote.Resolve(ctx, store, e.operation.RemoteRoot)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, &PreconditionError{Root: e.operation.RemoteRoot, Message: "remote root does not exist"}
	}
	return store, root, nil
}

// session connects to the remote. Failing to authenticate is a
// precondition failure like a missing root.
func (e *Engine) session(ctx context.Context) (remote.Store, error) {
	if e.connector == nil {
		return nil, &PreconditionError{Root: "remote", Message: "no remote store configured"}
	}
	store, err := e.connector.Connect(ctx)
	if err != nil {
		return nil, &PreconditionError{Root: "remote", Message: "cannot authenticate", Err: err}
	}
	if store == nil {
		return nil, &PreconditionError{Root: "remote", Message: "cannot authenticate", Err: errors.New("connector returned no session")}
	}
	return store, nil
}

func (e *Engine) excluder(root string) (*Excluder, error) {
	excluder, err := NewExcluder(e.operation.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if e.operation.IgnoreFile != "" {
		if err := excluder.LoadIgnoreFile(e.fs, root, e.operation.IgnoreFile); err != nil {
			return nil, err
		}
	}
	return excluder, nil
}
