package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chore-tracker/internal/model"
)

// CompletionRepository stores completions and their review state.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) Create(ctx context.Context, completion *model.Completion) error {
	if completion.Version == 0 {
		completion.Version = 1
	}
	completion.CompletedAt = completion.CompletedAt.UTC()
	if err := r.db.WithContext(ctx).Create(completion).Error; err != nil {
		return fmt.Errorf("create completion: %w", err)
	}
	return nil
}

// ListBetween returns the family's completions with CompletedAt in [from, to).
func (r *CompletionRepository) ListBetween(ctx context.Context, familyID uint, from, to time.Time) ([]model.Completion, error) {
	var completions []model.Completion
	if err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = completions.task_id").
		Where("tasks.family_id = ? AND completions.completed_at >= ? AND completions.completed_at < ?", familyID, from.UTC(), to.UTC()).
		Order("completions.completed_at ASC").
		Find(&completions).Error; err != nil {
		return nil, err
	}
	return completions, nil
}

func (r *CompletionRepository) ListPendingReview(ctx context.Context, familyID uint) ([]model.Completion, error) {
	var completions []model.Completion
	if err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = completions.task_id").
		Where("tasks.family_id = ? AND completions.status = ?", familyID, model.StatusPendingReview).
		Order("completions.completed_at ASC").
		Find(&completions).Error; err != nil {
		return nil, err
	}
	return completions, nil
}

func (r *CompletionRepository) FindByID(ctx context.Context, familyID, completionID uint) (*model.Completion, error) {
	var completion model.Completion
	if err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = completions.task_id").
		Where("tasks.family_id = ? AND completions.id = ?", familyID, completionID).
		First(&completion).Error; err != nil {
		return nil, err
	}
	return &completion, nil
}

// Review moves a pending_review completion to status. The update only
// applies while the row still has expectedVersion; otherwise ErrConflict.
func (r *CompletionRepository) Review(ctx context.Context, completion *model.Completion, expectedVersion int, status model.CompletionStatus, reviewerID uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Completion{}).
		Where("id = ? AND status = ? AND version = ?", completion.ID, model.StatusPendingReview, expectedVersion).
		Updates(map[string]interface{}{
			"status":         status,
			"version":        gorm.Expr("version + 1"),
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at,
		})
	if res.Error != nil {
		return fmt.Errorf("review completion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	completion.Status = status
	completion.Version = expectedVersion + 1
	completion.ReviewedByID = &reviewerID
	completion.ReviewedAt = &at
	return nil
}
