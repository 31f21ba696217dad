package model

import "time"

// Task represents a single item in the tracker.
// DeletedAt marks a soft-deleted row; it is a plain column, not gorm.DeletedAt,
// so deleted tasks stay addressable by id.
type Task struct {
	ID                uint       `gorm:"primaryKey"`
	Description       string     `gorm:"not null"`
	DueDate           *time.Time `gorm:"type:datetime"`
	Priority          Priority   `gorm:"type:text;default:Medium"`
	Category          string     `gorm:"default:Personal"`
	Status            Status     `gorm:"type:text;default:pending;index"`
	RecurrenceRule    Recurrence `gorm:"type:text"`
	Position          int        `gorm:"default:0"`
	IsPinned          bool       `gorm:"default:false"`
	IsArchived        bool       `gorm:"default:false"`
	RequiresBiometric bool       `gorm:"default:false"`
	Notes             *string
	PublicHash        *string    `gorm:"uniqueIndex"`
	DeletedAt         *time.Time `gorm:"type:datetime;index"`
	CompletedAt       *time.Time `gorm:"type:datetime"`
	CreatedAt         time.Time
}

func (Task) TableName() string {
	return "tasks"
}

func (t Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// TaskListItem is a task row with its subtask progress.
type TaskListItem struct {
	Task         `gorm:"embedded"`
	SubtaskCount int `gorm:"column:subtask_count"`
	SubtaskDone  int `gorm:"column:subtask_done"`
}

// Blocker is a task blocking another, with the id of the edge linking them.
type Blocker struct {
	Task   `gorm:"embedded"`
	LinkID uint `gorm:"column:link_id"`
}

// PositionUpdate moves a task to a manual sort position.
type PositionUpdate struct {
	ID       uint
	Position int
}
