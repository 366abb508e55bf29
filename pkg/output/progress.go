package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/drivemirror/pkg/models"
)

const progressTemplate = `{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }} {{speed . }} {{string . "current"}}`

// maxNameWidth bounds the current-task label so the bar stays on one line
const maxNameWidth = 40

// ProgressFormatter renders a byte-based progress bar over the whole plan.
// Failures are printed above the bar, the summary below it.
type ProgressFormatter struct {
	writer     io.Writer
	bar        *pb.ProgressBar
	totalTasks int
	done       int
	failed     int
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, totalTasks int, totalBytes int64) error {
	if writer == nil {
		writer = os.Stdout
	}
	// the bar refreshes from its own goroutine
	f.writer = &lockedWriter{w: writer}
	f.totalTasks = totalTasks
	f.done = 0
	f.failed = 0

	bar := pb.New64(totalBytes)
	bar.SetWriter(f.writer)
	bar.SetTemplateString(progressTemplate)
	bar.Set(pb.Bytes, true)
	bar.Set("prefix", f.prefix())

	if file, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			bar.SetWidth(width)
		}
	}

	f.bar = bar.Start()
	return nil
}

// Progress reports progress during execution
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case UpdateTaskStart:
		f.bar.Set("current", truncate(update.Task.Name, maxNameWidth))

	case UpdateTaskComplete:
		f.done++
		f.bar.Add64(update.Task.Size)

	case UpdateTaskError:
		f.done++
		f.failed++
		// failed bytes still count towards the plan so the bar can finish
		f.bar.Add64(update.Task.Size)
		fmt.Fprintf(f.writer, "\n✗ %s: %s error: %v\n", update.Task.Source, update.ErrorKind, update.Error)
	}

	f.bar.Set("prefix", f.prefix())
	return nil
}

// Complete finalizes output and displays summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	if f.bar != nil {
		f.bar.Set("current", "")
		f.bar.Finish()
	}
	if f.writer == nil {
		f.writer = os.Stdout
	}
	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "\nError: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

func (f *ProgressFormatter) prefix() string {
	if f.failed > 0 {
		return fmt.Sprintf("[%d/%d, %d failed]", f.done, f.totalTasks, f.failed)
	}
	return fmt.Sprintf("[%d/%d]", f.done, f.totalTasks)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
