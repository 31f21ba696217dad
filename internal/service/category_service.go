package service

import (
	"context"

	"task-tracker/internal/repository"
)

// CategoryService lists the free-text categories in use.
type CategoryService struct {
	repo *repository.TaskRepository
}

func NewCategoryService(repo *repository.TaskRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}
