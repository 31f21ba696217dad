package model

// Subtask is a checklist item owned by a task; it is removed together with its parent.
type Subtask struct {
	ID          uint   `gorm:"primaryKey"`
	TaskID      uint   `gorm:"not null;index"`
	Description string `gorm:"not null"`
	IsCompleted bool   `gorm:"default:false"`
}

func (Subtask) TableName() string {
	return "subtasks"
}
