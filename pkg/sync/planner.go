package sync

import (
	"sort"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// Plan turns diff candidates into upload tasks ordered by policy.
// The sort is stable, so ties keep discovery order. Seq numbers follow the
// final order starting at 1.
func Plan(result *DiffResult, policy models.OrderPolicy) []models.UploadTask {
	if result == nil || len(result.Candidates) == 0 {
		return nil
	}

	tasks := make([]models.UploadTask, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		task := models.UploadTask{
			Source: c.Entry.Path,
			Name:   c.Entry.Name,
			Kind:   c.Kind,
			Parent: c.Parent,
		}
		if c.Kind == models.KindFile {
			task.Size = c.Entry.Size
		}
		tasks = append(tasks, task)
	}

	switch policy {
	case models.OrderName:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Source < tasks[j].Source
		})
	case models.OrderSize, "":
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Size < tasks[j].Size
		})
	}

	for i := range tasks {
		tasks[i].Seq = i + 1
	}
	return tasks
}

// PlannedBytes sums the sizes of the file tasks
func PlannedBytes(tasks []models.UploadTask) int64 {
	var total int64
	for _, task := range tasks {
		total += task.Size
	}
	return total
}
