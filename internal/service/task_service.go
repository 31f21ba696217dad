package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

const defaultCategory = "General"

// TaskInput represents data required to create a task.
type TaskInput struct {
	Description    string
	DueDate        *time.Time
	Priority       model.Priority
	Category       string
	RecurrenceRule model.Recurrence
	Notes          *string
	IsPinned       bool
}

// UpdateResult reports what an update did. XPEarned and Recurred are only
// set when the update completed the task.
type UpdateResult struct {
	Applied    bool
	XPEarned   int
	Recurred   bool
	NextTaskID uint
}

// TaskService drives the task lifecycle: every mutation goes through it so that
// dependency gating, recurrence, XP credit and the activity log stay consistent.
type TaskService struct {
	store    *repository.Store
	activity *ActivityRecorder
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*TaskService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(store *repository.Store, activity *ActivityRecorder, log *slog.Logger, opts ...Option) *TaskService {
	if log == nil {
		log = slog.Default()
	}
	s := &TaskService{
		store:    store,
		activity: activity,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (uint, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return 0, fmt.Errorf("%w: description is required", ErrValidation)
	}

	task := model.Task{
		Description:    description,
		DueDate:        input.DueDate,
		Priority:       input.Priority,
		Category:       strings.TrimSpace(input.Category),
		Status:         model.StatusPending,
		RecurrenceRule: input.RecurrenceRule,
		Notes:          input.Notes,
		IsPinned:       input.IsPinned,
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if !task.Priority.Valid() {
		return 0, fmt.Errorf("%w: unknown priority %q", ErrValidation, task.Priority)
	}
	if task.Category == "" {
		task.Category = defaultCategory
	}
	if task.RecurrenceRule == "" {
		task.RecurrenceRule = model.RecurrenceNone
	}
	if !task.RecurrenceRule.Valid() {
		return 0, fmt.Errorf("%w: unknown recurrence rule %q", ErrValidation, task.RecurrenceRule)
	}

	if err := s.store.Tasks.Create(ctx, &task); err != nil {
		return 0, s.fail("create task", err)
	}

	s.activity.Record(ctx, task.ID, model.ActionCreate, "Created task: "+task.Description)
	return task.ID, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	return s.findTask(ctx, s.store, taskID)
}

// UpdateTask applies a partial update. Moving the status from pending to
// completed is gated on the task's blockers and triggers the completion side
// effects (completed_at, recurrence successor, XP) in one transaction.
// Moving it back to pending clears completed_at and never deducts XP.
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint, patch model.TaskPatch) (UpdateResult, error) {
	patch, err := validatePatch(patch)
	if err != nil {
		return UpdateResult{}, err
	}

	current, err := s.findTask(ctx, s.store, taskID)
	if err != nil {
		return UpdateResult{}, err
	}

	status, statusSet := patch.Status.Get()
	completing := statusSet && status == model.StatusCompleted && !current.IsCompleted()
	reopening := statusSet && status == model.StatusPending && current.IsCompleted()

	if completing {
		if err := s.ensureUnblocked(ctx, taskID); err != nil {
			return UpdateResult{}, err
		}
	}

	cols := patch.WithoutStatus().Columns()
	if reopening {
		cols["status"] = model.StatusPending
		cols["completed_at"] = nil
	}

	var res UpdateResult
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		n, err := tx.Tasks.Update(ctx, taskID, cols)
		if err != nil {
			return err
		}
		// A status that already holds needs no write but still counts as applied.
		res.Applied = n > 0 || len(cols) == 0

		if !completing {
			return nil
		}
		return s.complete(ctx, tx, taskID, &res)
	})
	if err != nil {
		return UpdateResult{}, s.fail("update task", err)
	}

	switch {
	case res.XPEarned > 0:
		s.activity.Record(ctx, taskID, model.ActionUpdate, fmt.Sprintf("Task completed (+%d XP)", res.XPEarned))
		if res.Recurred {
			s.activity.Record(ctx, res.NextTaskID, model.ActionCreate, fmt.Sprintf("Next occurrence of task #%d", taskID))
		}
	case res.Applied && len(cols) > 0:
		s.activity.Record(ctx, taskID, model.ActionUpdate, describePatch(patch, reopening))
	}
	return res, nil
}

// complete runs the completion side effects inside tx. If another caller
// completed the task first, nothing else happens.
func (s *TaskService) complete(ctx context.Context, tx *repository.Store, taskID uint, res *UpdateResult) error {
	now := s.now()
	n, err := tx.Tasks.MarkCompleted(ctx, taskID, now)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	res.Applied = true

	task, err := tx.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}

	if task.RecurrenceRule.Recurring() {
		next, err := NextOccurrence(task.RecurrenceRule, task.DueDate, now)
		if err != nil {
			return err
		}
		successor := model.Task{
			Description:    task.Description,
			DueDate:        &next,
			Priority:       task.Priority,
			Category:       task.Category,
			Status:         model.StatusPending,
			RecurrenceRule: task.RecurrenceRule,
		}
		if err := tx.Tasks.Create(ctx, &successor); err != nil {
			return err
		}
		res.Recurred = true
		res.NextTaskID = successor.ID
	}

	xp := XPForPriority(task.Priority)
	if _, err := tx.Profile.Credit(ctx, xp); err != nil {
		return err
	}
	res.XPEarned = xp
	return nil
}

func (s *TaskService) CompleteTask(ctx context.Context, taskID uint) (UpdateResult, error) {
	return s.UpdateTask(ctx, taskID, model.TaskPatch{Status: model.Some(model.StatusCompleted)})
}

func (s *TaskService) ReopenTask(ctx context.Context, taskID uint) (UpdateResult, error) {
	return s.UpdateTask(ctx, taskID, model.TaskPatch{Status: model.Some(model.StatusPending)})
}

func (s *TaskService) ArchiveTask(ctx context.Context, taskID uint, archived bool) (bool, error) {
	res, err := s.UpdateTask(ctx, taskID, model.TaskPatch{IsArchived: model.Some(archived)})
	return res.Applied, err
}

func (s *TaskService) PinTask(ctx context.Context, taskID uint, pinned bool) (bool, error) {
	res, err := s.UpdateTask(ctx, taskID, model.TaskPatch{IsPinned: model.Some(pinned)})
	return res.Applied, err
}

// DeleteTask moves a task to the recycle bin, or removes it for good when hard
// is set. The permanent-delete entry is written before the row disappears.
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint, hard bool) (bool, error) {
	task, err := s.findTask(ctx, s.store, taskID)
	if err != nil {
		return false, err
	}

	if hard {
		s.activity.Record(ctx, taskID, model.ActionDeletePermanent, "Task permanently deleted: "+task.Description)
		n, err := s.store.Tasks.Delete(ctx, taskID)
		if err != nil {
			return false, s.fail("delete task", err)
		}
		return n > 0, nil
	}

	n, err := s.store.Tasks.SoftDelete(ctx, taskID, s.now())
	if err != nil {
		return false, s.fail("soft delete task", err)
	}
	if n > 0 {
		s.activity.Record(ctx, taskID, model.ActionDeleteSoft, "Task moved to Recycle Bin")
	}
	return n > 0, nil
}

// RestoreTask takes a task out of the recycle bin. Restoring a task that is
// not deleted reports false.
func (s *TaskService) RestoreTask(ctx context.Context, taskID uint) (bool, error) {
	if _, err := s.findTask(ctx, s.store, taskID); err != nil {
		return false, err
	}

	n, err := s.store.Tasks.Restore(ctx, taskID)
	if err != nil {
		return false, s.fail("restore task", err)
	}
	if n > 0 {
		s.activity.Record(ctx, taskID, model.ActionRestore, "Task restored from Recycle Bin")
	}
	return n > 0, nil
}

// DuplicateTask creates a pending copy of a task under a fresh id.
func (s *TaskService) DuplicateTask(ctx context.Context, taskID uint) (uint, error) {
	src, err := s.findTask(ctx, s.store, taskID)
	if err != nil {
		return 0, err
	}

	dup := model.Task{
		Description:    src.Description + " (Copy)",
		DueDate:        src.DueDate,
		Priority:       src.Priority,
		Category:       src.Category,
		Status:         model.StatusPending,
		RecurrenceRule: src.RecurrenceRule,
		Notes:          src.Notes,
		IsPinned:       src.IsPinned,
		IsArchived:     src.IsArchived,
	}
	if err := s.store.Tasks.Create(ctx, &dup); err != nil {
		return 0, s.fail("duplicate task", err)
	}

	s.activity.Record(ctx, dup.ID, model.ActionCreate, fmt.Sprintf("Duplicated from task #%d", taskID))
	return dup.ID, nil
}

func (s *TaskService) ListTasks(ctx context.Context, view model.View) ([]model.TaskListItem, error) {
	if !view.Valid() {
		return nil, fmt.Errorf("%w: unknown view %q", ErrValidation, view)
	}
	items, err := s.store.Tasks.List(ctx, view)
	if err != nil {
		return nil, s.fail("list tasks", err)
	}
	return items, nil
}

// ReorderTasks stores manual positions for several tasks in one transaction.
func (s *TaskService) ReorderTasks(ctx context.Context, updates []model.PositionUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no positions to update", ErrValidation)
	}
	if _, err := s.store.Tasks.SetPositions(ctx, updates); err != nil {
		return s.fail("reorder tasks", err)
	}
	return nil
}

// ShareTask assigns a new public hash to the task and returns it.
func (s *TaskService) ShareTask(ctx context.Context, taskID uint) (string, error) {
	if _, err := s.findTask(ctx, s.store, taskID); err != nil {
		return "", err
	}

	hash := strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := s.store.Tasks.Update(ctx, taskID, map[string]any{"public_hash": hash}); err != nil {
		return "", s.fail("share task", err)
	}

	s.activity.Record(ctx, taskID, model.ActionUpdate, "Share link created")
	return hash, nil
}

func (s *TaskService) GetSharedTask(ctx context.Context, hash string) (*model.Task, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, fmt.Errorf("%w: share hash is required", ErrValidation)
	}
	task, err := s.store.Tasks.FindByPublicHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: shared task", ErrNotFound)
		}
		return nil, s.fail("find shared task", err)
	}
	return task, nil
}

func (s *TaskService) RecentlyCompleted(ctx context.Context, since time.Time) ([]model.Task, error) {
	tasks, err := s.store.Tasks.ListCompletedSince(ctx, since)
	if err != nil {
		return nil, s.fail("list completed tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) GetProfile(ctx context.Context) (model.Profile, error) {
	profile, err := s.store.Profile.Get(ctx)
	if err != nil {
		return model.Profile{}, s.fail("get profile", err)
	}
	return profile, nil
}

// GetActivity returns the audit trail of a task, newest first. It works for
// permanently deleted tasks too.
func (s *TaskService) GetActivity(ctx context.Context, taskID uint) ([]model.ActivityLog, error) {
	entries, err := s.activity.Query(ctx, taskID)
	if err != nil {
		return nil, s.fail("get activity", err)
	}
	return entries, nil
}

func (s *TaskService) findTask(ctx context.Context, store *repository.Store, taskID uint) (*model.Task, error) {
	task, err := store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
		}
		return nil, s.fail("find task", err)
	}
	return task, nil
}

// fail passes domain errors through and turns anything else into ErrStorage,
// logging the cause so that it does not reach the caller.
func (s *TaskService) fail(op string, err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrDependencyBlocked),
		errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	s.log.Error("storage failure", "op", op, "error", err)
	return fmt.Errorf("%w: %s", ErrStorage, op)
}

func validatePatch(patch model.TaskPatch) (model.TaskPatch, error) {
	if patch.Empty() {
		return patch, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if v, ok := patch.Description.Get(); ok {
		v = strings.TrimSpace(v)
		if v == "" {
			return patch, fmt.Errorf("%w: description is required", ErrValidation)
		}
		patch.Description = model.Some(v)
	}
	if v, ok := patch.Priority.Get(); ok && !v.Valid() {
		return patch, fmt.Errorf("%w: unknown priority %q", ErrValidation, v)
	}
	if v, ok := patch.Status.Get(); ok && !v.Valid() {
		return patch, fmt.Errorf("%w: unknown status %q", ErrValidation, v)
	}
	if v, ok := patch.RecurrenceRule.Get(); ok && !v.Valid() {
		return patch, fmt.Errorf("%w: unknown recurrence rule %q", ErrValidation, v)
	}
	return patch, nil
}

func describePatch(patch model.TaskPatch, reopened bool) string {
	switch {
	case reopened:
		return "Task reopened"
	case patch.IsArchived.IsSet() && len(patch.Columns()) == 1:
		if v, _ := patch.IsArchived.Get(); v {
			return "Task archived"
		}
		return "Task unarchived"
	default:
		return "Task updated details"
	}
}
