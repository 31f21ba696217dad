package service

import (
	"context"
	"fmt"
	"strings"

	"task-tracker/internal/model"
)

// AttachmentInput describes a file that was stored elsewhere.
type AttachmentInput struct {
	Filename     string
	Path         string
	OriginalName string
}

func (s *TaskService) AddComment(ctx context.Context, taskID uint, content string) (uint, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, fmt.Errorf("%w: content required", ErrValidation)
	}
	if _, err := s.findTask(ctx, s.store, taskID); err != nil {
		return 0, err
	}

	comment := model.Comment{TaskID: taskID, Content: content}
	if err := s.store.Comments.Create(ctx, &comment); err != nil {
		return 0, s.fail("add comment", err)
	}

	s.activity.Record(ctx, taskID, model.ActionComment, "Added a comment")
	return comment.ID, nil
}

// ListComments returns comments oldest first.
func (s *TaskService) ListComments(ctx context.Context, taskID uint) ([]model.Comment, error) {
	comments, err := s.store.Comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, s.fail("list comments", err)
	}
	return comments, nil
}

func (s *TaskService) DeleteComment(ctx context.Context, commentID uint) error {
	n, err := s.store.Comments.Delete(ctx, commentID)
	if err != nil {
		return s.fail("delete comment", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
	}
	return nil
}

func (s *TaskService) AddAttachment(ctx context.Context, taskID uint, input AttachmentInput) (uint, error) {
	if strings.TrimSpace(input.Filename) == "" || strings.TrimSpace(input.Path) == "" {
		return 0, fmt.Errorf("%w: filename and path are required", ErrValidation)
	}
	if _, err := s.findTask(ctx, s.store, taskID); err != nil {
		return 0, err
	}

	attachment := model.Attachment{
		TaskID:       taskID,
		Filename:     input.Filename,
		Path:         input.Path,
		OriginalName: input.OriginalName,
	}
	if err := s.store.Attachments.Create(ctx, &attachment); err != nil {
		return 0, s.fail("add attachment", err)
	}
	return attachment.ID, nil
}

func (s *TaskService) ListAttachments(ctx context.Context, taskID uint) ([]model.Attachment, error) {
	attachments, err := s.store.Attachments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, s.fail("list attachments", err)
	}
	return attachments, nil
}

func (s *TaskService) DeleteAttachment(ctx context.Context, attachmentID uint) error {
	n, err := s.store.Attachments.Delete(ctx, attachmentID)
	if err != nil {
		return s.fail("delete attachment", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: attachment %d", ErrNotFound, attachmentID)
	}
	return nil
}
