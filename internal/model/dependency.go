package model

// Dependency states that BlockerID must be completed before TaskID can be.
type Dependency struct {
	ID        uint `gorm:"primaryKey"`
	TaskID    uint `gorm:"not null;index"`
	BlockerID uint `gorm:"not null;index"`
}

func (Dependency) TableName() string {
	return "task_dependencies"
}
