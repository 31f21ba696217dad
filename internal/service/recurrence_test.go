package service

import (
	"errors"
	"testing"
	"time"

	"task-tracker/internal/model"
)

func TestNextOccurrence(t *testing.T) {
	t.Parallel()

	at := func(y int, m time.Month, d, h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, time.UTC)
	}

	cases := []struct {
		name string
		rule model.Recurrence
		ref  time.Time
		want time.Time
	}{
		{"daily", model.RecurrenceDaily, at(2025, 3, 10, 9, 30), at(2025, 3, 11, 9, 30)},
		{"daily across year", model.RecurrenceDaily, at(2024, 12, 31, 23, 0), at(2025, 1, 1, 23, 0)},
		{"weekly", model.RecurrenceWeekly, at(2025, 2, 25, 8, 0), at(2025, 3, 4, 8, 0)},
		{"monthly keeps day", model.RecurrenceMonthly, at(2025, 1, 15, 10, 0), at(2025, 2, 15, 10, 0)},
		{"monthly clamps to february", model.RecurrenceMonthly, at(2025, 1, 31, 10, 0), at(2025, 2, 28, 10, 0)},
		{"monthly clamps to leap february", model.RecurrenceMonthly, at(2024, 1, 31, 10, 0), at(2024, 2, 29, 10, 0)},
		{"monthly clamps to 30 days", model.RecurrenceMonthly, at(2025, 3, 31, 7, 15), at(2025, 4, 30, 7, 15)},
		{"monthly december rolls year", model.RecurrenceMonthly, at(2025, 12, 31, 0, 0), at(2026, 1, 31, 0, 0)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ref := tc.ref
			got, err := NextOccurrence(tc.rule, &ref, time.Time{})
			if err != nil {
				t.Fatalf("NextOccurrence returned error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNextOccurrence_NilReferenceUsesNow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got, err := NextOccurrence(model.RecurrenceWeekly, nil, now)
	if err != nil {
		t.Fatalf("NextOccurrence returned error: %v", err)
	}
	if want := now.AddDate(0, 0, 7); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNextOccurrence_NoneIsRejected(t *testing.T) {
	t.Parallel()

	_, err := NextOccurrence(model.RecurrenceNone, nil, time.Now())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
