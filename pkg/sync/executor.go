package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sdejongh/drivemirror/pkg/ledger"
	"github.com/sdejongh/drivemirror/pkg/logging"
	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/output"
	"github.com/sdejongh/drivemirror/pkg/ratelimit"
	"github.com/sdejongh/drivemirror/pkg/remote"
	"github.com/sdejongh/drivemirror/pkg/storage"
)

// DefaultBackoff is the wait after a transient store error
const DefaultBackoff = 10 * time.Second

// ExecutorConfig holds the collaborators of an Executor
type ExecutorConfig struct {
	Local     storage.Backend
	Store     remote.Store
	Connector remote.Connector
	Formatter output.Formatter
	Logger    logging.Logger
	Clock     clockwork.Clock
	Limiter   *ratelimit.Limiter
	Backoff   time.Duration

	// Checkpoint, when set, persists the ledger after every recorded outcome
	Checkpoint func() error
}

// ExecutionSummary counts what happened while draining a plan
type ExecutionSummary struct {
	FilesUploaded      int
	FoldersCreated     int
	BytesUploaded      int64
	TransientErrors    int
	ConnectionErrors   int
	UnclassifiedErrors int
	Reconnects         int
	Interrupted        bool
}

// Executor uploads planned tasks one at a time. It owns the store session
// and replaces it wholesale after a connection reset.
type Executor struct {
	local      storage.Backend
	store      remote.Store
	connector  remote.Connector
	formatter  output.Formatter
	logger     logging.Logger
	clock      clockwork.Clock
	limiter    *ratelimit.Limiter
	backoff    time.Duration
	checkpoint func() error
}

// NewExecutor creates an executor. Connector may be nil, in which case
// connection resets are recorded without reconnecting.
func NewExecutor(cfg ExecutorConfig) *Executor {
	e := &Executor{
		local:      cfg.Local,
		store:      cfg.Store,
		connector:  cfg.Connector,
		formatter:  cfg.Formatter,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
		limiter:    cfg.Limiter,
		backoff:    cfg.Backoff,
		checkpoint: cfg.Checkpoint,
	}
	if e.logger == nil {
		e.logger = logging.NewNullLogger()
	}
	if e.formatter == nil {
		e.formatter = output.NewHumanFormatter()
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.backoff == 0 {
		e.backoff = DefaultBackoff
	}
	return e
}

// Store returns the current session
func (e *Executor) Store() remote.Store {
	return e.store
}

// Execute drains tasks in order, recording every outcome in runLedger.
// A task failure never stops the loop. Cancellation is honoured between
// tasks only: the task in flight runs to completion and tasks not yet
// attempted stay pending.
func (e *Executor) Execute(ctx context.Context, tasks []models.UploadTask, runLedger *ledger.RunLedger) (*ExecutionSummary, error) {
	summary := &ExecutionSummary{}
	total := len(tasks)

	for i, task := range tasks {
		if ctx.Err() != nil {
			summary.Interrupted = true
			e.logger.Warn(ctx, "Run interrupted", logging.Fields{
				"attempted": i,
				"remaining": total - i,
			})
			break
		}

		e.formatter.Progress(output.ProgressUpdate{Type: output.UpdateTaskStart, Task: task, Current: i + 1, Total: total})

		start := e.clock.Now()
		obj, err := e.run(ctx, task)
		duration := e.clock.Since(start)

		if err == nil {
			if recErr := runLedger.Complete(task, obj, duration); recErr != nil {
				return summary, recErr
			}
			e.persist(ctx, task)
			e.recordSuccess(summary, task)
			e.logger.Debug(ctx, "Task completed", logging.Fields{
				"seq":       task.Seq,
				"source":    task.Source,
				"remote_id": obj.ID,
				"duration":  duration.String(),
			})
			e.formatter.Progress(output.ProgressUpdate{
				Type:     output.UpdateTaskComplete,
				Task:     task,
				Current:  i + 1,
				Total:    total,
				RemoteID: obj.ID,
				Duration: duration,
			})
			continue
		}

		kind := remote.KindOf(err)
		if recErr := runLedger.Fail(task, kind, err, duration); recErr != nil {
			return summary, recErr
		}
		e.persist(ctx, task)
		e.logger.Error(ctx, "Task failed", err, logging.Fields{
			"seq":    task.Seq,
			"source": task.Source,
			"kind":   string(kind),
		})
		e.formatter.Progress(output.ProgressUpdate{
			Type:      output.UpdateTaskError,
			Task:      task,
			Current:   i + 1,
			Total:     total,
			ErrorKind: kind,
			Error:     err,
			Duration:  duration,
		})

		switch kind {
		case remote.KindTransient:
			summary.TransientErrors++
			e.wait(ctx)
		case remote.KindConnection:
			summary.ConnectionErrors++
			if e.reconnect(ctx) {
				summary.Reconnects++
			}
		default:
			summary.UnclassifiedErrors++
		}
	}

	return summary, nil
}

// run performs one task. The store call does not observe cancellation of
// ctx, so an interrupted run never leaves a half-sent upload behind.
func (e *Executor) run(ctx context.Context, task models.UploadTask) (*models.RemoteObject, error) {
	ctx = context.WithoutCancel(ctx)
	if task.IsFolder() {
		return e.store.CreateFolder(ctx, task.Name, task.Parent.ID)
	}

	file, err := e.local.Open(ctx, task.Source)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var content io.Reader = file
	content = ratelimit.NewReader(ctx, content, e.limiter)
	obj, err := e.store.CreateFile(ctx, task.Name, task.Parent.ID, content)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("create %s: store returned no object", task.Name)
	}
	return obj, nil
}

// persist writes the ledger after a transition. A failed write is logged;
// the engine saves again once the loop ends.
func (e *Executor) persist(ctx context.Context, task models.UploadTask) {
	if e.checkpoint == nil {
		return
	}
	if err := e.checkpoint(); err != nil {
		e.logger.Warn(ctx, "Failed to persist ledger", logging.Fields{
			"seq":   task.Seq,
			"error": err.Error(),
		})
	}
}

func (e *Executor) recordSuccess(summary *ExecutionSummary, task models.UploadTask) {
	if task.IsFolder() {
		summary.FoldersCreated++
		return
	}
	summary.FilesUploaded++
	summary.BytesUploaded += task.Size
}

// wait sleeps for the backoff interval on the executor clock. A cancelled
// context cuts the wait short; the loop then stops at the next task boundary.
func (e *Executor) wait(ctx context.Context) {
	e.logger.Info(ctx, "Backing off after transient error", logging.Fields{"wait": e.backoff.String()})
	e.formatter.Progress(output.ProgressUpdate{Type: output.UpdateBackoff, Duration: e.backoff})

	select {
	case <-e.clock.After(e.backoff):
	case <-ctx.Done():
	}
}

// reconnect replaces the session. On failure the old session is kept.
func (e *Executor) reconnect(ctx context.Context) bool {
	if e.connector == nil {
		return false
	}

	store, err := e.connector.Connect(ctx)
	if err == nil && store == nil {
		err = errors.New("connector returned no session")
	}
	if err != nil {
		e.logger.Error(ctx, "Reconnect failed, keeping current session", err, nil)
		e.formatter.Progress(output.ProgressUpdate{Type: output.UpdateReconnect, Error: err})
		return false
	}

	e.store = store
	e.logger.Info(ctx, "Session re-established", nil)
	e.formatter.Progress(output.ProgressUpdate{Type: output.UpdateReconnect})
	return true
}
