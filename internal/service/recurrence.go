package service

import (
	"fmt"
	"time"

	"task-tracker/internal/model"
)

// NextOccurrence computes the due date of the task that follows a completed
// recurring task. A nil reference means "from now".
// Monthly keeps the day of month and clamps it to the length of the target
// month, so Jan 31 is followed by the last day of February.
func NextOccurrence(rule model.Recurrence, ref *time.Time, now time.Time) (time.Time, error) {
	base := now
	if ref != nil {
		base = *ref
	}

	switch rule {
	case model.RecurrenceDaily:
		return base.AddDate(0, 0, 1), nil
	case model.RecurrenceWeekly:
		return base.AddDate(0, 0, 7), nil
	case model.RecurrenceMonthly:
		year, month, day := base.Date()
		firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, base.Location()).AddDate(0, 1, 0)
		if last := daysInMonth(firstOfTarget.Month(), firstOfTarget.Year()); day > last {
			day = last
		}
		hour, minute, sec := base.Clock()
		return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, base.Nanosecond(), base.Location()), nil
	default:
		return time.Time{}, fmt.Errorf("%w: recurrence rule %q has no next occurrence", ErrValidation, rule)
	}
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)
	lastOfMonth := firstOfNextMonth.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}
