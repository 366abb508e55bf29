package sync

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/output"
	"github.com/sdejongh/drivemirror/pkg/storage"
)

// writeTree creates files under root. Keys ending in "/" create empty directories.
func writeTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	if err := fs.MkdirAll(root, 0755); err != nil {
		t.Fatalf("failed to create root: %v", err)
	}
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		if strings.HasSuffix(path, "/") {
			if err := fs.MkdirAll(fullPath, 0755); err != nil {
				t.Fatalf("failed to create dir: %v", err)
			}
			continue
		}
		if err := fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := afero.WriteFile(fs, fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

func newLocal(t *testing.T, files map[string]string) (afero.Fs, *storage.Local) {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeTree(t, fs, "/src", files)
	local, err := storage.NewLocal(fs, "/src")
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return fs, local
}

func sources(tasks []models.UploadTask) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Source
	}
	return out
}

func candidatePaths(result *DiffResult) []string {
	out := make([]string, len(result.Candidates))
	for i, c := range result.Candidates {
		out[i] = c.Entry.Path
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recordingFormatter keeps every update it receives
type recordingFormatter struct {
	updates []output.ProgressUpdate
	reports []*models.RunReport
	errors  []error
}

func (f *recordingFormatter) Start(writer io.Writer, totalTasks int, totalBytes int64) error {
	return nil
}

func (f *recordingFormatter) Progress(update output.ProgressUpdate) error {
	f.updates = append(f.updates, update)
	return nil
}

func (f *recordingFormatter) Complete(report *models.RunReport) error {
	f.reports = append(f.reports, report)
	return nil
}

func (f *recordingFormatter) Error(err error) error {
	f.errors = append(f.errors, err)
	return nil
}

func (f *recordingFormatter) Name() string {
	return "recording"
}

func (f *recordingFormatter) count(updateType output.UpdateType) int {
	n := 0
	for _, u := range f.updates {
		if u.Type == updateType {
			n++
		}
	}
	return n
}
