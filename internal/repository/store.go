package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one connection or one transaction.
type Store struct {
	db           *gorm.DB
	Tasks        *TaskRepository
	Subtasks     *SubtaskRepository
	Dependencies *DependencyRepository
	Profile      *ProfileRepository
	Activity     *ActivityRepository
	Comments     *CommentRepository
	Attachments  *AttachmentRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Tasks:        NewTaskRepository(db),
		Subtasks:     NewSubtaskRepository(db),
		Dependencies: NewDependencyRepository(db),
		Profile:      NewProfileRepository(db),
		Activity:     NewActivityRepository(db),
		Comments:     NewCommentRepository(db),
		Attachments:  NewAttachmentRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single transaction. It commits
// when fn returns nil and rolls back otherwise.
// fn must only use the Store it is given: the pool holds one connection.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
