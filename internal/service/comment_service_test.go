package service

import (
	"context"
	"errors"
	"testing"

	"task-tracker/internal/model"
)

func TestServiceComments(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	task := mustCreateTask(t, svc, TaskInput{Description: "discuss"})
	if _, err := svc.AddComment(ctx, task, " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	first, err := svc.AddComment(ctx, task, "first")
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}
	if _, err := svc.AddComment(ctx, task, "second"); err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}

	comments, err := svc.ListComments(ctx, task)
	if err != nil {
		t.Fatalf("ListComments returned error: %v", err)
	}
	if len(comments) != 2 || comments[0].Content != "first" || comments[1].Content != "second" {
		t.Fatalf("expected comments oldest first, got %+v", comments)
	}

	if got := actions(t, svc, task); got[0] != model.ActionComment {
		t.Fatalf("expected COMMENT entry, got %v", got)
	}

	if err := svc.DeleteComment(ctx, first); err != nil {
		t.Fatalf("DeleteComment returned error: %v", err)
	}
	if err := svc.DeleteComment(ctx, first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceAttachments(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	task := mustCreateTask(t, svc, TaskInput{Description: "scan"})
	if _, err := svc.AddAttachment(ctx, task, AttachmentInput{Filename: "a.pdf"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	id, err := svc.AddAttachment(ctx, task, AttachmentInput{Filename: "a.pdf", Path: "uploads/a.pdf", OriginalName: "receipt.pdf"})
	if err != nil {
		t.Fatalf("AddAttachment returned error: %v", err)
	}
	list, err := svc.ListAttachments(ctx, task)
	if err != nil {
		t.Fatalf("ListAttachments returned error: %v", err)
	}
	if len(list) != 1 || list[0].OriginalName != "receipt.pdf" {
		t.Fatalf("expected one attachment, got %+v", list)
	}

	if _, err := svc.DeleteTask(ctx, task, true); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	list, err = svc.ListAttachments(ctx, task)
	if err != nil {
		t.Fatalf("ListAttachments returned error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected attachments removed with the task, got %d", len(list))
	}
	if err := svc.DeleteAttachment(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
