package service

import (
	"errors"
	"strings"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrDependencyBlocked = errors.New("task is blocked")
	ErrStorage           = errors.New("storage failure")
)

// BlockedError is returned when a completion is attempted while blockers are
// still pending. Blockers holds their descriptions.
type BlockedError struct {
	Blockers []string
}

func (e *BlockedError) Error() string {
	return "task is blocked by: " + strings.Join(e.Blockers, ", ")
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrDependencyBlocked
}
