package model

import (
	"testing"
	"time"
)

func TestTaskPatchColumns_OnlySetFields(t *testing.T) {
	t.Parallel()

	patch := TaskPatch{
		Description: Some("new"),
		IsPinned:    Some(false),
	}

	cols := patch.Columns()
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d: %v", len(cols), cols)
	}
	if cols["description"] != "new" {
		t.Fatalf("expected description %q, got %v", "new", cols["description"])
	}
	if pinned, ok := cols["is_pinned"].(bool); !ok || pinned {
		t.Fatalf("expected is_pinned=false to be kept, got %v", cols["is_pinned"])
	}
}

func TestTaskPatchColumns_NullDueDateIsKept(t *testing.T) {
	t.Parallel()

	patch := TaskPatch{DueDate: Some[*time.Time](nil)}

	cols := patch.Columns()
	v, ok := cols["due_date"]
	if !ok {
		t.Fatalf("expected due_date column to be present")
	}
	if v.(*time.Time) != nil {
		t.Fatalf("expected nil due date, got %v", v)
	}
	if patch.Empty() {
		t.Fatalf("expected patch with a null due date to be non-empty")
	}
}

func TestTaskPatchWithoutStatus(t *testing.T) {
	t.Parallel()

	patch := TaskPatch{Status: Some(StatusCompleted), Notes: Some[*string](nil)}
	rest := patch.WithoutStatus()

	if rest.Status.IsSet() {
		t.Fatalf("expected status to be unset")
	}
	if !patch.Status.IsSet() {
		t.Fatalf("expected original patch to be unchanged")
	}
	if !rest.Notes.IsSet() {
		t.Fatalf("expected notes to survive")
	}
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	cases := map[int]int{0: 1, 50: 1, 99: 1, 100: 2, 130: 2, 250: 3, -10: 1}
	for xp, want := range cases {
		if got := LevelFor(xp); got != want {
			t.Errorf("LevelFor(%d) = %d, want %d", xp, got, want)
		}
	}
}

func TestRecurrenceScanNullIsNone(t *testing.T) {
	t.Parallel()

	var r Recurrence
	if err := r.Scan(nil); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if r != RecurrenceNone {
		t.Fatalf("expected %q, got %q", RecurrenceNone, r)
	}
	if r.Recurring() {
		t.Fatalf("expected None not to recur")
	}

	if err := r.Scan([]byte("Weekly")); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if r != RecurrenceWeekly || !r.Recurring() {
		t.Fatalf("expected Weekly recurring rule, got %q", r)
	}
}

func TestPriorityScanRejectsNumbers(t *testing.T) {
	t.Parallel()

	var p Priority
	if err := p.Scan(int64(3)); err == nil {
		t.Fatalf("expected error for integer priority")
	}
}
