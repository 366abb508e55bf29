package output

import (
	"io"
	"time"

	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/remote"
)

// UpdateType identifies what a ProgressUpdate reports
type UpdateType string

const (
	// UpdateTaskStart is sent before a task is attempted
	UpdateTaskStart UpdateType = "task_start"
	// UpdateTaskComplete is sent when a task landed in Completed
	UpdateTaskComplete UpdateType = "task_complete"
	// UpdateTaskError is sent when a task landed in Failed
	UpdateTaskError UpdateType = "task_error"
	// UpdateBackoff is sent before waiting after a transient error
	UpdateBackoff UpdateType = "backoff"
	// UpdateReconnect is sent after the session was re-established
	UpdateReconnect UpdateType = "reconnect"
)

// ProgressUpdate represents a progress notification during a run
type ProgressUpdate struct {
	Type UpdateType
	Task models.UploadTask

	// Current is the 1-based position of Task in the plan
	Current int
	Total   int

	RemoteID  string
	ErrorKind remote.ErrorKind
	Error     error

	// Duration is the task duration, or the wait for UpdateBackoff
	Duration time.Duration
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters
type Formatter interface {
	// Start initializes the formatter for the execution of a plan
	Start(writer io.Writer, totalTasks int, totalBytes int64) error

	// Progress reports progress during execution
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.RunReport) error

	// Error reports an error outside of task execution
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter registered under name, falling back to human
func New(name string, progress bool) Formatter {
	switch name {
	case "json":
		return NewJSONFormatter()
	default:
		if progress {
			return NewProgressFormatter()
		}
		return NewHumanFormatter()
	}
}
