package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"task-tracker/internal/model"
)

// SubtaskRepository manages checklist items of a task.
type SubtaskRepository struct {
	db *gorm.DB
}

func NewSubtaskRepository(db *gorm.DB) *SubtaskRepository {
	return &SubtaskRepository{db: db}
}

func (r *SubtaskRepository) Create(ctx context.Context, subtask *model.Subtask) error {
	if err := r.db.WithContext(ctx).Create(subtask).Error; err != nil {
		return fmt.Errorf("create subtask: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) FindByID(ctx context.Context, id uint) (*model.Subtask, error) {
	var subtask model.Subtask
	if err := r.db.WithContext(ctx).First(&subtask, id).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

func (r *SubtaskRepository) ListByTask(ctx context.Context, taskID uint) ([]model.Subtask, error) {
	var subtasks []model.Subtask
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id ASC").Find(&subtasks).Error; err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return subtasks, nil
}

// SetCompleted flips is_completed only when it differs from the requested
// value, so a zero result means there was no transition.
func (r *SubtaskRepository) SetCompleted(ctx context.Context, id uint, completed bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Subtask{}).
		Where("id = ? AND is_completed = ?", id, !completed).
		Update("is_completed", completed)
	if res.Error != nil {
		return 0, fmt.Errorf("toggle subtask: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *SubtaskRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Subtask{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete subtask: %w", res.Error)
	}
	return res.RowsAffected, nil
}
