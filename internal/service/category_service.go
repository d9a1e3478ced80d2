package service

import (
	"context"

	"todo/internal/repository"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns all categories by name, each with its number of open tasks.
func (s *CategoryService) List(ctx context.Context) ([]repository.CategorySummary, error) {
	return s.repo.ListWithCounts(ctx)
}
