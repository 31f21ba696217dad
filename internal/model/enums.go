package model

import (
	"database/sql/driver"
	"fmt"
)

// Priority ranks a task and drives the XP award on completion.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Scan treats NULL as Medium, the column default.
func (p *Priority) Scan(value any) error {
	s, err := scanText(value)
	if err != nil {
		return fmt.Errorf("scan priority: %w", err)
	}
	if s == "" {
		s = string(PriorityMedium)
	}
	*p = Priority(s)
	return nil
}

func (p Priority) Value() (driver.Value, error) {
	return string(p), nil
}

// Status is the completion state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

func (s *Status) Scan(value any) error {
	text, err := scanText(value)
	if err != nil {
		return fmt.Errorf("scan status: %w", err)
	}
	if text == "" {
		text = string(StatusPending)
	}
	*s = Status(text)
	return nil
}

func (s Status) Value() (driver.Value, error) {
	return string(s), nil
}

// Recurrence controls whether completing a task spawns a successor.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "None"
	RecurrenceDaily   Recurrence = "Daily"
	RecurrenceWeekly  Recurrence = "Weekly"
	RecurrenceMonthly Recurrence = "Monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Recurring reports whether the rule produces a next occurrence.
func (r Recurrence) Recurring() bool {
	return r != "" && r != RecurrenceNone
}

// Scan maps NULL and empty values to None; legacy rows never set the column.
func (r *Recurrence) Scan(value any) error {
	s, err := scanText(value)
	if err != nil {
		return fmt.Errorf("scan recurrence rule: %w", err)
	}
	if s == "" {
		s = string(RecurrenceNone)
	}
	*r = Recurrence(s)
	return nil
}

func (r Recurrence) Value() (driver.Value, error) {
	if r == "" {
		return string(RecurrenceNone), nil
	}
	return string(r), nil
}

// ActivityAction names an audited mutation.
type ActivityAction string

const (
	ActionCreate          ActivityAction = "CREATE"
	ActionUpdate          ActivityAction = "UPDATE"
	ActionComment         ActivityAction = "COMMENT"
	ActionDeleteSoft      ActivityAction = "DELETE_SOFT"
	ActionDeletePermanent ActivityAction = "DELETE_PERMANENT"
	ActionRestore         ActivityAction = "RESTORE"
)

// View selects one of the task listings.
type View string

const (
	ViewActive     View = "active"
	ViewArchived   View = "archived"
	ViewRecycleBin View = "recycleBin"
)

func (v View) Valid() bool {
	return v == ViewActive || v == ViewArchived || v == ViewRecycleBin
}

func scanText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported type %T", value)
	}
}
