package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

// AddDependency records that blockerID must be completed before taskID.
// Self-dependencies, duplicates and edges that would close a cycle are
// rejected with ErrConflict.
func (s *TaskService) AddDependency(ctx context.Context, taskID, blockerID uint) (uint, error) {
	if taskID == blockerID {
		return 0, fmt.Errorf("%w: a task cannot block itself", ErrConflict)
	}

	var dep model.Dependency
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.findTask(ctx, tx, taskID); err != nil {
			return err
		}
		if _, err := s.findTask(ctx, tx, blockerID); err != nil {
			return err
		}

		exists, err := tx.Dependencies.Exists(ctx, taskID, blockerID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: task %d is already blocked by task %d", ErrConflict, taskID, blockerID)
		}

		cycle, err := tx.Dependencies.Reaches(ctx, blockerID, taskID)
		if err != nil {
			return err
		}
		if cycle {
			return fmt.Errorf("%w: task %d already depends on task %d", ErrConflict, blockerID, taskID)
		}

		dep = model.Dependency{TaskID: taskID, BlockerID: blockerID}
		return tx.Dependencies.Create(ctx, &dep)
	})
	if err != nil {
		return 0, s.fail("add dependency", err)
	}

	s.activity.Record(ctx, taskID, model.ActionUpdate, fmt.Sprintf("Blocked by task #%d", blockerID))
	return dep.ID, nil
}

func (s *TaskService) RemoveDependency(ctx context.Context, edgeID uint) error {
	dep, err := s.store.Dependencies.FindByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: dependency %d", ErrNotFound, edgeID)
		}
		return s.fail("find dependency", err)
	}

	n, err := s.store.Dependencies.Delete(ctx, edgeID)
	if err != nil {
		return s.fail("remove dependency", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: dependency %d", ErrNotFound, edgeID)
	}

	s.activity.Record(ctx, dep.TaskID, model.ActionUpdate, fmt.Sprintf("No longer blocked by task #%d", dep.BlockerID))
	return nil
}

func (s *TaskService) GetBlockers(ctx context.Context, taskID uint) ([]model.Blocker, error) {
	if _, err := s.findTask(ctx, s.store, taskID); err != nil {
		return nil, err
	}
	blockers, err := s.store.Dependencies.BlockersOf(ctx, taskID)
	if err != nil {
		return nil, s.fail("get blockers", err)
	}
	return blockers, nil
}

// IsUnblocked reports whether every blocker of the task is completed.
func (s *TaskService) IsUnblocked(ctx context.Context, taskID uint) (bool, error) {
	pending, err := s.pendingBlockers(ctx, taskID)
	if err != nil {
		return false, err
	}
	return len(pending) == 0, nil
}

func (s *TaskService) ensureUnblocked(ctx context.Context, taskID uint) error {
	pending, err := s.pendingBlockers(ctx, taskID)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return &BlockedError{Blockers: pending}
	}
	return nil
}

func (s *TaskService) pendingBlockers(ctx context.Context, taskID uint) ([]string, error) {
	blockers, err := s.store.Dependencies.BlockersOf(ctx, taskID)
	if err != nil {
		return nil, s.fail("get blockers", err)
	}
	var pending []string
	for _, b := range blockers {
		if !b.IsCompleted() {
			pending = append(pending, b.Description)
		}
	}
	return pending, nil
}
