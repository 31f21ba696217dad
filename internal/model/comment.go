package model

import "time"

// Comment is a free-text note attached to a task.
type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	TaskID    uint   `gorm:"not null;index"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time
}

func (Comment) TableName() string {
	return "task_comments"
}

// Attachment describes an uploaded file. The bytes live outside the database.
type Attachment struct {
	ID           uint `gorm:"primaryKey"`
	TaskID       uint `gorm:"index"`
	Filename     string
	Path         string
	OriginalName string
	CreatedAt    time.Time
}

func (Attachment) TableName() string {
	return "attachments"
}
