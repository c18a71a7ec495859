package service

import (
	"context"

	"chore-tracker/internal/model"
	"chore-tracker/internal/repository"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, member *model.Member) ([]model.Category, error) {
	return s.repo.ListByFamily(ctx, member.FamilyID)
}
