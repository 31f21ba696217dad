package model

import "time"

// ActivityLog is an append-only audit entry. TaskID is a weak reference and
// keeps its value after the task is permanently deleted.
type ActivityLog struct {
	ID        uint           `gorm:"primaryKey"`
	TaskID    *uint          `gorm:"index"`
	Action    ActivityAction `gorm:"type:text;not null"`
	Details   string
	CreatedAt time.Time
}

func (ActivityLog) TableName() string {
	return "activity_log"
}
