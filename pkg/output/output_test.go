package output

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/remote"
)

func sampleReport() *models.RunReport {
	return &models.RunReport{
		RunID:      "run-1",
		LocalRoot:  "/src",
		RemoteRoot: "/backup",
		Duration:   1500 * time.Millisecond,
		Stats: models.Statistics{
			TasksPlanned:    2,
			BytesPlanned:    2048,
			TasksCompleted:  1,
			TasksFailed:     1,
			FilesUploaded:   1,
			BytesUploaded:   1024,
			TransientErrors: 1,
		},
		Plan: []models.UploadTask{
			{Seq: 1, Source: "/src/a.txt", Name: "a.txt", Kind: models.KindFile, Size: 1024, Parent: models.RemoteRef{ID: "p1", Name: "backup"}},
			{Seq: 2, Source: "/src/empty", Name: "empty", Kind: models.KindFolder, Parent: models.RemoteRef{ID: "p1", Name: "backup"}},
		},
		RemoteOnly:     []models.RemoteOnlyEntry{{Path: "/old", Object: models.RemoteObject{ID: "r1", Name: "old", Kind: models.KindFolder}}},
		SizeMismatches: []models.SizeMismatch{{Path: "b.txt", LocalSize: 3, RemoteSize: 4}},
		Failures:       []models.TaskFailure{{Source: "/src/c.txt", Kind: "transient", Error: "503"}},
		LedgerPath:     "/ledgers/run-1",
		Status:         models.StatusPartial,
	}
}

func TestHumanFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter()
	task := models.UploadTask{Seq: 1, Source: "/src/a.txt", Name: "a.txt", Kind: models.KindFile, Size: 1536}

	f.Start(&buf, 3, 4096)
	f.Progress(ProgressUpdate{Type: UpdateTaskStart, Task: task, Current: 1, Total: 3})
	f.Progress(ProgressUpdate{Type: UpdateTaskError, Task: task, Current: 1, Total: 3, ErrorKind: remote.KindTransient, Error: errors.New("503")})
	f.Progress(ProgressUpdate{Type: UpdateBackoff, Duration: 10 * time.Second})
	f.Complete(sampleReport())

	out := buf.String()
	for _, want := range []string{
		"Starting upload: 3 tasks, 4.0 KiB total",
		"[1/3] Uploading /src/a.txt (1.5 KiB)...",
		"[1/3] ✗ /src/a.txt: transient error: 503",
		"waiting 10s",
		"Ledger: /ledgers/run-1",
		"Status: partial",
		"/src/c.txt [transient]: 503",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter()
	task := models.UploadTask{Seq: 2, Source: "/src/b", Name: "b", Kind: models.KindFile, Size: 5, Parent: models.RemoteRef{ID: "p"}}

	f.Start(&buf, 1, 5)
	f.Progress(ProgressUpdate{Type: UpdateTaskComplete, Task: task, Current: 1, Total: 1, RemoteID: "obj-9", Duration: time.Second})
	f.Complete(sampleReport())

	var events []JSONEvent
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var event JSONEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %q is not JSON: %v", scanner.Text(), err)
		}
		events = append(events, event)
	}

	wantTypes := []string{"start", "task_complete", "complete"}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d type = %s, want %s", i, events[i].Type, want)
		}
	}

	data := events[1].Data.(map[string]any)
	if data["remote_id"] != "obj-9" {
		t.Errorf("remote_id = %v, want obj-9", data["remote_id"])
	}

	report := events[2].Data.(map[string]any)
	if report["status"] != "partial" || report["exit_code"] != float64(1) {
		t.Errorf("report = %v", report)
	}
}

func TestProgressFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter()
	task := models.UploadTask{Seq: 1, Source: "/src/a", Name: "a", Kind: models.KindFile, Size: 10}

	f.Start(&buf, 2, 20)
	f.Progress(ProgressUpdate{Type: UpdateTaskStart, Task: task, Current: 1, Total: 2})
	f.Progress(ProgressUpdate{Type: UpdateTaskComplete, Task: task, Current: 1, Total: 2})
	f.Progress(ProgressUpdate{Type: UpdateTaskError, Task: task, Current: 2, Total: 2, ErrorKind: remote.KindConnection, Error: errors.New("reset")})

	if f.prefix() != "[2/2, 1 failed]" {
		t.Errorf("prefix() = %s", f.prefix())
	}

	f.Complete(sampleReport())
	if !strings.Contains(buf.String(), "Status: partial") {
		t.Errorf("summary missing from progress output")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		progress bool
		want     string
	}{
		{"json", true, "json"},
		{"human", false, "human"},
		{"human", true, "progress"},
		{"", false, "human"},
	}
	for _, tt := range tests {
		if got := New(tt.name, tt.progress).Name(); got != tt.want {
			t.Errorf("New(%q, %v) = %s, want %s", tt.name, tt.progress, got, tt.want)
		}
	}
}

func TestWritePlan(t *testing.T) {
	t.Run("Human", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WritePlan(&buf, sampleReport(), "human"); err != nil {
			t.Fatalf("WritePlan() error = %v", err)
		}
		out := buf.String()
		for _, want := range []string{"Uploads (2 tasks, 2.0 KiB)", "upload  /src/a.txt (1.0 KiB) -> backup", "mkdir   /src/empty", "Only in Remote (1 objects", "/old/", "b.txt"} {
			if !strings.Contains(out, want) {
				t.Errorf("plan missing %q\n%s", want, out)
			}
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WritePlan(&buf, sampleReport(), "json"); err != nil {
			t.Fatalf("WritePlan() error = %v", err)
		}
		var decoded struct {
			TaskCount int                 `json:"task_count"`
			Plan      []models.UploadTask `json:"plan"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.TaskCount != 2 || decoded.Plan[1].Kind != models.KindFolder {
			t.Errorf("decoded = %+v", decoded)
		}
	})

	t.Run("NothingToReport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")
		if err := WritePlanReport(&models.RunReport{}, path, "human"); err != nil {
			t.Fatalf("WritePlanReport() error = %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("no file should be written for an empty plan")
		}
	})
}
