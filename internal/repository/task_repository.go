package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-tracker/internal/model"
)

const listSelect = `tasks.*,
	(SELECT COUNT(*) FROM subtasks WHERE subtasks.task_id = tasks.id) AS subtask_count,
	(SELECT COUNT(*) FROM subtasks WHERE subtasks.task_id = tasks.id AND subtasks.is_completed = ?) AS subtask_done`

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindByPublicHash(ctx context.Context, hash string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("public_hash = ?", hash).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update writes only the given columns and reports how many rows changed.
func (r *TaskRepository) Update(ctx context.Context, taskID uint, cols map[string]any) (int64, error) {
	if len(cols) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).Updates(cols)
	if res.Error != nil {
		return 0, fmt.Errorf("update task: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkCompleted moves a pending task to completed. A task that is already
// completed is left alone and reports zero rows.
func (r *TaskRepository) MarkCompleted(ctx context.Context, taskID uint, completedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status <> ?", taskID, model.StatusCompleted).
		Updates(map[string]any{
			"status":       model.StatusCompleted,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("complete task: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SoftDelete stamps deleted_at on a task that is not already in the recycle bin.
func (r *TaskRepository) SoftDelete(ctx context.Context, taskID uint, deletedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND deleted_at IS NULL", taskID).
		Update("deleted_at", deletedAt)
	if res.Error != nil {
		return 0, fmt.Errorf("soft delete task: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TaskRepository) Restore(ctx context.Context, taskID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND deleted_at IS NOT NULL", taskID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("restore task: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete permanently removes a task with its subtasks, dependency edges,
// attachments and comments. Activity log entries are kept.
func (r *TaskRepository) Delete(ctx context.Context, taskID uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Subtask{}).Error; err != nil {
			return fmt.Errorf("delete subtasks: %w", err)
		}
		if err := tx.Where("task_id = ? OR blocker_id = ?", taskID, taskID).Delete(&model.Dependency{}).Error; err != nil {
			return fmt.Errorf("delete dependencies: %w", err)
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Attachment{}).Error; err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		res := tx.Where("id = ?", taskID).Delete(&model.Task{})
		if res.Error != nil {
			return fmt.Errorf("delete task: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// List returns the tasks of one view.
// Active: not archived and not deleted, pinned first, then manual position, newest first.
// Archived: archived and not deleted, newest first. Recycle bin: deleted, latest deletion first.
func (r *TaskRepository) List(ctx context.Context, view model.View) ([]model.TaskListItem, error) {
	q := r.db.WithContext(ctx).Table("tasks").Select(listSelect, true)
	switch view {
	case model.ViewActive:
		q = q.Where("is_archived = ? AND deleted_at IS NULL", false).
			Order("is_pinned DESC, position ASC, created_at DESC, id DESC")
	case model.ViewArchived:
		q = q.Where("is_archived = ? AND deleted_at IS NULL", true).
			Order("created_at DESC, id DESC")
	case model.ViewRecycleBin:
		q = q.Where("deleted_at IS NOT NULL").
			Order("deleted_at DESC, id DESC")
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}

	var items []model.TaskListItem
	if err := q.Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("list %s tasks: %w", view, err)
	}
	return items, nil
}

func (r *TaskRepository) ListCompletedSince(ctx context.Context, since time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("status = ? AND completed_at >= ? AND deleted_at IS NULL", model.StatusCompleted, since).
		Order("completed_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	return tasks, nil
}

// Categories returns the distinct categories used by active tasks.
func (r *TaskRepository) Categories(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("is_archived = ? AND deleted_at IS NULL AND category <> ''", false).
		Distinct().Order("category ASC").
		Pluck("category", &names).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return names, nil
}

// SetPositions applies manual ordering for several tasks at once.
func (r *TaskRepository) SetPositions(ctx context.Context, updates []model.PositionUpdate) (int64, error) {
	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(&model.Task{}).Where("id = ?", u.ID).Update("position", u.Position)
			if res.Error != nil {
				return fmt.Errorf("set position of task %d: %w", u.ID, res.Error)
			}
			changed += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
