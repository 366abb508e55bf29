package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// WritePlanReport writes the diff and plan of a run to a file.
// Format can be "human" or "json". Nothing is written when the trees are in sync.
func WritePlanReport(report *models.RunReport, path string, format string) error {
	if len(report.Plan) == 0 && len(report.RemoteOnly) == 0 && len(report.SizeMismatches) == 0 {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	return WritePlan(file, report, format)
}

// WritePlan writes the diff and plan of a run to w
func WritePlan(w io.Writer, report *models.RunReport, format string) error {
	switch format {
	case "json":
		return writePlanJSON(report, w)
	default: // "human"
		return writePlanHuman(report, w)
	}
}

// writePlanHuman writes the plan in human-readable format
func writePlanHuman(report *models.RunReport, w io.Writer) error {
	fmt.Fprintf(w, "Mirror Plan\n")
	fmt.Fprintf(w, "===========\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Local:  %s\n", report.LocalRoot)
	fmt.Fprintf(w, "Remote: %s\n\n", report.RemoteRoot)

	writeSection(w, fmt.Sprintf("Uploads (%d tasks, %s)", len(report.Plan), formatBytes(report.Stats.BytesPlanned)), len(report.Plan), func() {
		for _, task := range report.Plan {
			if task.IsFolder() {
				fmt.Fprintf(w, "  %4d  mkdir   %s -> %s\n", task.Seq, task.Source, parentLabel(task.Parent))
				continue
			}
			fmt.Fprintf(w, "  %4d  upload  %s (%s) -> %s\n", task.Seq, task.Source, formatBytes(task.Size), parentLabel(task.Parent))
		}
	})

	writeSection(w, fmt.Sprintf("Size Mismatches (%d files, not uploaded)", len(report.SizeMismatches)), len(report.SizeMismatches), func() {
		for _, m := range report.SizeMismatches {
			fmt.Fprintf(w, "  %s\n", m.Path)
			fmt.Fprintf(w, "    Local:   %s\n", formatBytes(m.LocalSize))
			fmt.Fprintf(w, "    Remote:  %s\n", formatBytes(m.RemoteSize))
		}
	})

	writeSection(w, fmt.Sprintf("Only in Remote (%d objects, never deleted)", len(report.RemoteOnly)), len(report.RemoteOnly), func() {
		for _, r := range report.RemoteOnly {
			suffix := ""
			if r.Object.IsFolder() {
				suffix = "/"
			}
			fmt.Fprintf(w, "  %s%s\n", r.Path, suffix)
		}
	})

	return nil
}

func writeSection(w io.Writer, label string, count int, body func()) {
	if count == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", label)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))
	body()
	fmt.Fprintf(w, "\n")
}

func parentLabel(ref models.RemoteRef) string {
	if ref.Name == "" {
		return ref.ID
	}
	return ref.Name
}

// writePlanJSON writes the plan in JSON format
func writePlanJSON(report *models.RunReport, w io.Writer) error {
	output := struct {
		Generated      string                   `json:"generated"`
		LocalRoot      string                   `json:"local_root"`
		RemoteRoot     string                   `json:"remote_root"`
		TaskCount      int                      `json:"task_count"`
		BytesPlanned   int64                    `json:"bytes_planned"`
		Plan           []models.UploadTask      `json:"plan"`
		SizeMismatches []models.SizeMismatch    `json:"size_mismatches"`
		RemoteOnly     []models.RemoteOnlyEntry `json:"remote_only"`
	}{
		Generated:      time.Now().Format(time.RFC3339),
		LocalRoot:      report.LocalRoot,
		RemoteRoot:     report.RemoteRoot,
		TaskCount:      len(report.Plan),
		BytesPlanned:   report.Stats.BytesPlanned,
		Plan:           nonNil(report.Plan),
		SizeMismatches: nonNil(report.SizeMismatches),
		RemoteOnly:     nonNil(report.RemoteOnly),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
