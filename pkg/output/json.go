package output

import (
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// JSONFormatter writes one JSON event per line for automation and scripting
type JSONFormatter struct {
	writer  io.Writer
	encoder *json.Encoder
	now     func() time.Time
}

// JSONEvent represents a single event in the JSON output stream
type JSONEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

// JSONStartData represents the data for a start event
type JSONStartData struct {
	TotalTasks int   `json:"total_tasks"`
	TotalBytes int64 `json:"total_bytes"`
}

// JSONTaskData represents task-related event data
type JSONTaskData struct {
	Seq        int    `json:"seq"`
	Total      int    `json:"total"`
	Source     string `json:"source"`
	Kind       string `json:"kind"`
	Size       int64  `json:"size,omitempty"`
	ParentID   string `json:"parent_id"`
	RemoteID   string `json:"remote_id,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// JSONReportData represents the final report data
type JSONReportData struct {
	RunID          string                   `json:"run_id,omitempty"`
	LocalRoot      string                   `json:"local_root"`
	RemoteRoot     string                   `json:"remote_root"`
	DryRun         bool                     `json:"dry_run"`
	Status         string                   `json:"status"`
	ExitCode       int                      `json:"exit_code"`
	Duration       string                   `json:"duration"`
	DurationMs     int64                    `json:"duration_ms"`
	Stats          models.Statistics        `json:"stats"`
	Plan           []models.UploadTask      `json:"plan,omitempty"`
	RemoteOnly     []models.RemoteOnlyEntry `json:"remote_only,omitempty"`
	SizeMismatches []models.SizeMismatch    `json:"size_mismatches,omitempty"`
	Failures       []JSONErrorData          `json:"failures,omitempty"`
	LedgerPath     string                   `json:"ledger_path,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path  string `json:"path"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{now: time.Now}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, totalTasks int, totalBytes int64) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.encoder = json.NewEncoder(writer)

	return f.emit("start", JSONStartData{TotalTasks: totalTasks, TotalBytes: totalBytes})
}

// Progress emits task events as they happen
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	data := JSONTaskData{
		Seq:       update.Current,
		Total:     update.Total,
		Source:    update.Task.Source,
		Kind:      string(update.Task.Kind),
		Size:      update.Task.Size,
		ParentID:  update.Task.Parent.ID,
		RemoteID:  update.RemoteID,
		ErrorKind: string(update.ErrorKind),
	}
	if update.Error != nil {
		data.Error = update.Error.Error()
	}
	if update.Duration > 0 {
		data.DurationMs = update.Duration.Milliseconds()
	}
	return f.emit(string(update.Type), data)
}

// Complete emits the final report
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	return f.emit("complete", NewJSONReport(report))
}

// Error reports an error
func (f *JSONFormatter) Error(err error) error {
	return f.emit("error", map[string]string{"error": err.Error()})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func (f *JSONFormatter) emit(eventType string, data any) error {
	if f.encoder == nil {
		f.writer = os.Stdout
		f.encoder = json.NewEncoder(f.writer)
	}
	return f.encoder.Encode(JSONEvent{
		Timestamp: f.now(),
		Type:      eventType,
		Data:      data,
	})
}

// NewJSONReport converts a run report to its JSON form
func NewJSONReport(report *models.RunReport) JSONReportData {
	var failures []JSONErrorData
	for _, failure := range report.Failures {
		failures = append(failures, JSONErrorData{
			Path:  failure.Source,
			Kind:  failure.Kind,
			Error: failure.Error,
		})
	}

	return JSONReportData{
		RunID:          report.RunID,
		LocalRoot:      report.LocalRoot,
		RemoteRoot:     report.RemoteRoot,
		DryRun:         report.DryRun,
		Status:         string(report.Status),
		ExitCode:       report.Status.ExitCode(),
		Duration:       report.Duration.Round(time.Millisecond).String(),
		DurationMs:     report.Duration.Milliseconds(),
		Stats:          report.Stats,
		Plan:           report.Plan,
		RemoteOnly:     report.RemoteOnly,
		SizeMismatches: report.SizeMismatches,
		Failures:       failures,
		LedgerPath:     report.LedgerPath,
	}
}
