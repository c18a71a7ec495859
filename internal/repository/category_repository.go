package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"chore-tracker/internal/model"
)

// CategoryRepository manages chore categories of a family.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate finds the family's category by name, ignoring case, and creates
// it on first use. A blank name means no category.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, familyID uint, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var category model.Category
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND LOWER(name) = LOWER(?)", familyID, name).
		Attrs(model.Category{FamilyID: familyID, Name: name}).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, fmt.Errorf("get or create category %q: %w", name, err)
	}
	return &category, nil
}

// ListByFamily returns the family's categories sorted by name.
func (r *CategoryRepository) ListByFamily(ctx context.Context, familyID uint) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("LOWER(name) ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
