package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"task-tracker/internal/model"
)

// ActivityRepository appends to and reads the audit log. Entries are never updated or removed.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListByTask returns the entries of a task, newest first.
func (r *ActivityRepository) ListByTask(ctx context.Context, taskID uint) ([]model.ActivityLog, error) {
	var entries []model.ActivityLog
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
