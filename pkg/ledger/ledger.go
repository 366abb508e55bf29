// Package ledger records the outcome of every planned upload task of a run
// and persists it for inspection and manual re-drive.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/remote"
)

// ErrNotPending is returned when recording an outcome for a task that is
// unknown or has already left Pending
var ErrNotPending = errors.New("task is not pending")

// State is the list a task currently sits in
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Entry is one task together with its outcome
type Entry struct {
	Task models.UploadTask `json:"task"`

	// RemoteID is the ID of the created object, completed entries only
	RemoteID string `json:"remote_id,omitempty"`

	// ErrorKind and Error describe the failure, failed entries only
	ErrorKind remote.ErrorKind `json:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty"`

	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Meta describes the run a ledger belongs to
type Meta struct {
	RunID      string    `json:"run_id"`
	LocalRoot  string    `json:"local_root"`
	RemoteRoot string    `json:"remote_root"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// RetryOf is the run whose leftovers this run re-drives
	RetryOf string `json:"retry_of,omitempty"`
}

// Snapshot is a point-in-time copy of the three lists.
// Pending is in plan order, Completed and Failed in the order outcomes were recorded.
type Snapshot struct {
	Meta      Meta    `json:"meta"`
	Pending   []Entry `json:"pending"`
	Completed []Entry `json:"completed"`
	Failed    []Entry `json:"failed"`
}

// Total returns the number of tasks across all lists
func (s *Snapshot) Total() int {
	return len(s.Pending) + len(s.Completed) + len(s.Failed)
}

// Leftovers returns the failed and pending tasks in plan order
func (s *Snapshot) Leftovers() []models.UploadTask {
	tasks := make([]models.UploadTask, 0, len(s.Failed)+len(s.Pending))
	for _, e := range s.Failed {
		tasks = append(tasks, e.Task)
	}
	for _, e := range s.Pending {
		tasks = append(tasks, e.Task)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Seq < tasks[j].Seq })
	return tasks
}

// RunLedger tracks the Pending, Completed and Failed lists of one run.
// A task leaves Pending at most once and always lands in exactly one of
// Completed or Failed.
type RunLedger struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	meta      Meta
	tasks     []models.UploadTask
	state     map[int]State
	completed []Entry
	failed    []Entry
}

// NewRunLedger creates a ledger with every task pending. Tasks are
// identified by Seq, which must be unique.
func NewRunLedger(meta Meta, tasks []models.UploadTask) *RunLedger {
	l := &RunLedger{
		clock: clockwork.NewRealClock(),
		meta:  meta,
		tasks: append([]models.UploadTask(nil), tasks...),
		state: make(map[int]State, len(tasks)),
	}
	for _, task := range tasks {
		l.state[task.Seq] = StatePending
	}
	return l
}

// SetClock replaces the clock used to stamp outcomes
func (l *RunLedger) SetClock(clock clockwork.Clock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = clock
}

// Meta returns the run metadata
func (l *RunLedger) Meta() Meta {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.meta
}

// Complete moves task to Completed
func (l *RunLedger) Complete(task models.UploadTask, obj *models.RemoteObject, duration time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.leavePending(task, StateCompleted); err != nil {
		return err
	}

	entry := Entry{Task: task, FinishedAt: l.clock.Now(), Duration: duration}
	if obj != nil {
		entry.RemoteID = obj.ID
	}
	l.completed = append(l.completed, entry)
	return nil
}

// Fail moves task to Failed with the classified cause
func (l *RunLedger) Fail(task models.UploadTask, kind remote.ErrorKind, cause error, duration time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.leavePending(task, StateFailed); err != nil {
		return err
	}

	entry := Entry{Task: task, ErrorKind: kind, FinishedAt: l.clock.Now(), Duration: duration}
	if cause != nil {
		entry.Error = cause.Error()
	}
	l.failed = append(l.failed, entry)
	return nil
}

// State returns the list task seq is in
func (l *RunLedger) State(seq int) (State, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.state[seq]
	return st, ok
}

// Counts returns the size of each list
func (l *RunLedger) Counts() (pending, completed, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) - len(l.completed) - len(l.failed), len(l.completed), len(l.failed)
}

// Snapshot copies the current lists
func (l *RunLedger) Snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := &Snapshot{
		Meta:      l.meta,
		Pending:   []Entry{},
		Completed: append([]Entry{}, l.completed...),
		Failed:    append([]Entry{}, l.failed...),
	}
	snap.Meta.UpdatedAt = l.clock.Now()

	for _, task := range l.tasks {
		if l.state[task.Seq] == StatePending {
			snap.Pending = append(snap.Pending, Entry{Task: task})
		}
	}
	return snap
}

// leavePending transitions task out of Pending; the caller holds the lock
func (l *RunLedger) leavePending(task models.UploadTask, to State) error {
	st, ok := l.state[task.Seq]
	if !ok || st != StatePending {
		return fmt.Errorf("record %s for task %d (%s): %w", to, task.Seq, task.Source, ErrNotPending)
	}
	l.state[task.Seq] = to
	return nil
}
