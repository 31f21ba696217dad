package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

// SubtaskResult reports a subtask toggle.
type SubtaskResult struct {
	Applied  bool
	XPEarned int
}

func (s *TaskService) AddSubtask(ctx context.Context, taskID uint, description string) (uint, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, fmt.Errorf("%w: subtask description is required", ErrValidation)
	}
	if _, err := s.findTask(ctx, s.store, taskID); err != nil {
		return 0, err
	}

	subtask := model.Subtask{TaskID: taskID, Description: description}
	if err := s.store.Subtasks.Create(ctx, &subtask); err != nil {
		return 0, s.fail("add subtask", err)
	}

	s.activity.Record(ctx, taskID, model.ActionUpdate, "Added subtask: "+description)
	return subtask.ID, nil
}

func (s *TaskService) ListSubtasks(ctx context.Context, taskID uint) ([]model.Subtask, error) {
	if _, err := s.findTask(ctx, s.store, taskID); err != nil {
		return nil, err
	}
	subtasks, err := s.store.Subtasks.ListByTask(ctx, taskID)
	if err != nil {
		return nil, s.fail("list subtasks", err)
	}
	return subtasks, nil
}

// ToggleSubtask sets the completion flag of a subtask. Checking it off credits
// SubtaskXP once per transition; unchecking never deducts.
func (s *TaskService) ToggleSubtask(ctx context.Context, subtaskID uint, completed bool) (SubtaskResult, error) {
	var res SubtaskResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Subtasks.FindByID(ctx, subtaskID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: subtask %d", ErrNotFound, subtaskID)
			}
			return err
		}
		res.Applied = true

		n, err := tx.Subtasks.SetCompleted(ctx, subtaskID, completed)
		if err != nil {
			return err
		}
		if n == 0 || !completed {
			return nil
		}
		if _, err := tx.Profile.Credit(ctx, SubtaskXP); err != nil {
			return err
		}
		res.XPEarned = SubtaskXP
		return nil
	})
	if err != nil {
		return SubtaskResult{}, s.fail("toggle subtask", err)
	}
	return res, nil
}

func (s *TaskService) DeleteSubtask(ctx context.Context, subtaskID uint) error {
	n, err := s.store.Subtasks.Delete(ctx, subtaskID)
	if err != nil {
		return s.fail("delete subtask", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: subtask %d", ErrNotFound, subtaskID)
	}
	return nil
}
