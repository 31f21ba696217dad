package service

import (
	"context"
	"log/slog"
	"time"

	"task-tracker/internal/model"
)

const activityWriteTimeout = 5 * time.Second

// ActivityStore is the persistence behind the activity log.
type ActivityStore interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
	ListByTask(ctx context.Context, taskID uint) ([]model.ActivityLog, error)
}

// ActivityRecorder writes audit entries on a best-effort basis: a failed
// write is logged and never reaches the caller of the mutation.
type ActivityRecorder struct {
	store ActivityStore
	log   *slog.Logger
}

func NewActivityRecorder(store ActivityStore, log *slog.Logger) *ActivityRecorder {
	if log == nil {
		log = slog.Default()
	}
	return &ActivityRecorder{store: store, log: log}
}

// Record appends one entry. The write is detached from ctx cancellation.
func (r *ActivityRecorder) Record(ctx context.Context, taskID uint, action model.ActivityAction, details string) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityWriteTimeout)
	defer cancel()

	id := taskID
	entry := &model.ActivityLog{TaskID: &id, Action: action, Details: details}
	if err := r.store.Append(writeCtx, entry); err != nil {
		r.log.Warn("activity log write failed", "task_id", taskID, "action", action, "error", err)
	}
}

// Query returns the entries for a task, newest first.
func (r *ActivityRecorder) Query(ctx context.Context, taskID uint) ([]model.ActivityLog, error) {
	return r.store.ListByTask(ctx, taskID)
}
