package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"task-tracker/internal/model"
)

func TestReminderDailySummary(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	overdue := fixedNow.Add(-24 * time.Hour)
	soon := fixedNow.Add(24 * time.Hour)
	mustCreateTask(t, svc, TaskInput{Description: "read <b>book</b>", Category: "Home"})
	mustCreateTask(t, svc, TaskInput{Description: "dentist", DueDate: &soon, Priority: model.PriorityHigh})
	mustCreateTask(t, svc, TaskInput{Description: "pay fine", DueDate: &overdue})
	done := mustCreateTask(t, svc, TaskInput{Description: "finished", Priority: model.PriorityLow})
	if _, err := svc.CompleteTask(ctx, done); err != nil {
		t.Fatalf("CompleteTask returned error: %v", err)
	}

	text, err := NewReminderService(svc).DailySummary(ctx, fixedNow)
	if err != nil {
		t.Fatalf("DailySummary returned error: %v", err)
	}

	late := strings.Index(text, "pay fine")
	soonAt := strings.Index(text, "dentist")
	later := strings.Index(text, "read &lt;b&gt;book&lt;/b&gt;")
	if late < 0 || soonAt < 0 || later < 0 {
		t.Fatalf("expected every open task in summary, got:\n%s", text)
	}
	if !(late < soonAt && soonAt < later) {
		t.Fatalf("expected open tasks ordered by due date with undated last, got:\n%s", text)
	}
	if !strings.Contains(text, "overdue") {
		t.Fatalf("expected overdue marker, got:\n%s", text)
	}
	if !strings.Contains(text, "✔️ finished") {
		t.Fatalf("expected completed task listed, got:\n%s", text)
	}
	if !strings.Contains(text, "Level 1 · 10 XP · Cadet") {
		t.Fatalf("expected profile line, got:\n%s", text)
	}
}

func TestReminderDailySummary_Empty(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	text, err := NewReminderService(svc).DailySummary(context.Background(), fixedNow)
	if err != nil {
		t.Fatalf("DailySummary returned error: %v", err)
	}
	if !strings.Contains(text, "nothing open") || !strings.Contains(text, "nothing yet") {
		t.Fatalf("expected empty markers, got:\n%s", text)
	}
}
