package output

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer     io.Writer
	totalTasks int
	totalBytes int64
	startTime  time.Time
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, totalTasks int, totalBytes int64) error {
	f.writer = writer
	f.totalTasks = totalTasks
	f.totalBytes = totalBytes
	f.startTime = time.Now()

	if writer != nil {
		fmt.Fprintf(writer, "Starting upload: %d tasks, %s total\n",
			totalTasks, formatBytes(totalBytes))
	}

	return nil
}

// Progress reports progress during execution
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case UpdateTaskStart:
		fmt.Fprintf(f.writer, "[%d/%d] %s %s%s...\n",
			update.Current, update.Total, verb(update.Task), update.Task.Source, sizeSuffix(update.Task))

	case UpdateTaskComplete:
		fmt.Fprintf(f.writer, "[%d/%d] ✓ %s (%s)\n",
			update.Current, update.Total, update.Task.Source, formatDuration(update.Duration))

	case UpdateTaskError:
		fmt.Fprintf(f.writer, "[%d/%d] ✗ %s: %s error: %v\n",
			update.Current, update.Total, update.Task.Source, update.ErrorKind, update.Error)

	case UpdateBackoff:
		fmt.Fprintf(f.writer, "  waiting %s before the next task\n", update.Duration)

	case UpdateReconnect:
		if update.Error != nil {
			fmt.Fprintf(f.writer, "  reconnect failed, keeping the current session: %v\n", update.Error)
		} else {
			fmt.Fprintf(f.writer, "  session re-established\n")
		}
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func writeSummary(w io.Writer, report *models.RunReport) {
	st := report.Stats

	fmt.Fprintf(w, "\n")
	if report.DryRun {
		fmt.Fprintf(w, "Dry run completed in %s\n", report.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "Run %s completed in %s\n", report.RunID, report.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Scanned:\n")
	fmt.Fprintf(w, "    Local entries:  %d\n", st.LocalEntriesScanned)
	fmt.Fprintf(w, "    Remote objects: %d\n", st.RemoteObjectsScanned)
	fmt.Fprintf(w, "    Directories:    %d\n", st.DirsDescended)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Plan:\n")
	fmt.Fprintf(w, "    Tasks:          %d (%s)\n", st.TasksPlanned, formatBytes(st.BytesPlanned))
	fmt.Fprintf(w, "    Remote only:    %d\n", len(report.RemoteOnly))
	fmt.Fprintf(w, "    Size mismatch:  %d\n", len(report.SizeMismatches))

	if !report.DryRun {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "  Operations:\n")
		fmt.Fprintf(w, "    Completed:      %d (%d files, %d folders)\n", st.TasksCompleted, st.FilesUploaded, st.FoldersCreated)
		fmt.Fprintf(w, "    Failed:         %d (%d transient, %d connection, %d unclassified)\n",
			st.TasksFailed, st.TransientErrors, st.ConnectionErrors, st.UnclassifiedErrors)
		fmt.Fprintf(w, "    Pending:        %d\n", st.TasksPending)
		fmt.Fprintf(w, "    Reconnects:     %d\n", st.Reconnects)
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "  Transfer:\n")
		fmt.Fprintf(w, "    Data:           %s\n", formatBytes(st.BytesUploaded))

		if report.Duration.Seconds() > 0 {
			avgSpeed := float64(st.BytesUploaded) / report.Duration.Seconds()
			fmt.Fprintf(w, "    Average speed:  %s/s\n", formatBytes(int64(avgSpeed)))
		}
	}

	if report.LedgerPath != "" {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "Ledger: %s\n", report.LedgerPath)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		for _, failure := range report.Failures {
			fmt.Fprintf(w, "  %s [%s]: %s\n", failure.Source, failure.Kind, failure.Error)
		}
	}
}

func verb(task models.UploadTask) string {
	if task.IsFolder() {
		return "Creating folder"
	}
	return "Uploading"
}

func sizeSuffix(task models.UploadTask) string {
	if task.IsFolder() {
		return ""
	}
	return " (" + formatBytes(task.Size) + ")"
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
