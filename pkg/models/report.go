package models

import (
	"time"
)

// RunReport represents the results of a mirror run
type RunReport struct {
	// Operation details
	RunID      string
	LocalRoot  string
	RemoteRoot string
	DryRun     bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Plan is the ordered task list (populated for dry runs)
	Plan []UploadTask

	// Informational diff output, never acted upon
	RemoteOnly     []RemoteOnlyEntry
	SizeMismatches []SizeMismatch

	// Failures lists every task that ended in the Failed list
	Failures []TaskFailure

	// LedgerPath is where the run ledger was persisted, empty for dry runs
	LedgerPath string

	// Overall status
	Status RunStatus
}

// Statistics holds run metrics
type Statistics struct {
	// Diff phase
	LocalEntriesScanned  int `json:"local_entries_scanned"`
	RemoteObjectsScanned int `json:"remote_objects_scanned"`
	DirsDescended        int `json:"dirs_descended"`

	// Plan
	TasksPlanned int   `json:"tasks_planned"`
	BytesPlanned int64 `json:"bytes_planned"`

	// Execution
	TasksCompleted int   `json:"tasks_completed"`
	TasksFailed    int   `json:"tasks_failed"`
	TasksPending   int   `json:"tasks_pending"`
	FilesUploaded  int   `json:"files_uploaded"`
	FoldersCreated int   `json:"folders_created"`
	BytesUploaded  int64 `json:"bytes_uploaded"`

	// Failures by classification
	TransientErrors    int `json:"transient_errors"`
	ConnectionErrors   int `json:"connection_errors"`
	UnclassifiedErrors int `json:"unclassified_errors"`
	Reconnects         int `json:"reconnects"`
}

// TaskFailure is a failed task with its classification
type TaskFailure struct {
	Source string
	Kind   string
	Error  string
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates every planned task completed
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates some tasks failed
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates the run failed as a whole
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the run was interrupted with tasks still pending
	StatusCancelled RunStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the run status
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// ResolveStatus derives the run status from the final counters
func (st *Statistics) ResolveStatus() RunStatus {
	switch {
	case st.TasksPending > 0:
		return StatusCancelled
	case st.TasksFailed == 0:
		return StatusSuccess
	case st.TasksCompleted == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
