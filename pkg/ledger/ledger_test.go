package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/remote"
)

func testTasks(n int) []models.UploadTask {
	tasks := make([]models.UploadTask, n)
	for i := range tasks {
		tasks[i] = models.UploadTask{
			Seq:    i + 1,
			Source: "/src/file" + string(rune('a'+i)),
			Name:   "file" + string(rune('a'+i)),
			Kind:   models.KindFile,
			Parent: models.RemoteRef{ID: "root"},
			Size:   int64(i + 1),
		}
	}
	return tasks
}

func TestRunLedgerTransitions(t *testing.T) {
	tasks := testTasks(3)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	l := NewRunLedger(Meta{RunID: "run-1"}, tasks)
	l.SetClock(clock)

	if p, c, f := l.Counts(); p != 3 || c != 0 || f != 0 {
		t.Fatalf("Counts() = %d/%d/%d, want 3/0/0", p, c, f)
	}

	if err := l.Complete(tasks[0], &models.RemoteObject{ID: "obj-1"}, time.Second); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := l.Fail(tasks[1], remote.KindTransient, errors.New("503"), time.Second); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	snap := l.Snapshot()
	if len(snap.Pending) != 1 || snap.Pending[0].Task.Seq != 3 {
		t.Errorf("Pending = %+v, want task 3", snap.Pending)
	}
	if len(snap.Completed) != 1 || snap.Completed[0].RemoteID != "obj-1" {
		t.Errorf("Completed = %+v", snap.Completed)
	}
	if !snap.Completed[0].FinishedAt.Equal(clock.Now()) {
		t.Errorf("FinishedAt = %v, want %v", snap.Completed[0].FinishedAt, clock.Now())
	}
	if len(snap.Failed) != 1 || snap.Failed[0].ErrorKind != remote.KindTransient || snap.Failed[0].Error != "503" {
		t.Errorf("Failed = %+v", snap.Failed)
	}
	if snap.Total() != 3 {
		t.Errorf("Total() = %d, want 3", snap.Total())
	}

	if st, _ := l.State(2); st != StateFailed {
		t.Errorf("State(2) = %s, want failed", st)
	}
}

func TestRunLedgerRejectsSecondOutcome(t *testing.T) {
	tasks := testTasks(1)
	l := NewRunLedger(Meta{}, tasks)

	if err := l.Complete(tasks[0], nil, 0); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := l.Fail(tasks[0], remote.KindUnclassified, errors.New("x"), 0); !errors.Is(err, ErrNotPending) {
		t.Errorf("Fail() after Complete error = %v, want ErrNotPending", err)
	}
	if err := l.Complete(models.UploadTask{Seq: 99}, nil, 0); !errors.Is(err, ErrNotPending) {
		t.Errorf("Complete() unknown task error = %v, want ErrNotPending", err)
	}

	_, c, f := l.Counts()
	if c != 1 || f != 0 {
		t.Errorf("Counts() completed=%d failed=%d, want 1/0", c, f)
	}
}

func TestSnapshotLeftovers(t *testing.T) {
	tasks := testTasks(4)
	l := NewRunLedger(Meta{}, tasks)
	l.Fail(tasks[2], remote.KindTransient, errors.New("429"), 0)
	l.Complete(tasks[0], nil, 0)
	l.Fail(tasks[1], remote.KindConnection, errors.New("reset"), 0)

	leftovers := l.Snapshot().Leftovers()
	want := []int{2, 3, 4}
	if len(leftovers) != len(want) {
		t.Fatalf("Leftovers() = %d tasks, want %d", len(leftovers), len(want))
	}
	for i, seq := range want {
		if leftovers[i].Seq != seq {
			t.Errorf("Leftovers()[%d].Seq = %d, want %d", i, leftovers[i].Seq, seq)
		}
	}
}
