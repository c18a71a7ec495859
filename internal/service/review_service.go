package service

import (
	"context"
	"time"

	"chore-tracker/internal/model"
	"chore-tracker/internal/repository"
)

// ReviewService lets parents approve or reject completions.
type ReviewService struct {
	completionRepo *repository.CompletionRepository
}

func NewReviewService(completionRepo *repository.CompletionRepository) *ReviewService {
	return &ReviewService{completionRepo: completionRepo}
}

func (s *ReviewService) Pending(ctx context.Context, member *model.Member) ([]model.Completion, error) {
	return s.completionRepo.ListPendingReview(ctx, member.FamilyID)
}

// Approve marks a pending completion as completed. Concurrent reviews of the
// same completion resolve to one winner; the others get repository.ErrConflict.
func (s *ReviewService) Approve(ctx context.Context, reviewer *model.Member, completionID uint, at time.Time) (*model.Completion, error) {
	return s.review(ctx, reviewer, completionID, model.StatusCompleted, at)
}

func (s *ReviewService) Reject(ctx context.Context, reviewer *model.Member, completionID uint, at time.Time) (*model.Completion, error) {
	return s.review(ctx, reviewer, completionID, model.StatusRejected, at)
}

func (s *ReviewService) review(ctx context.Context, reviewer *model.Member, completionID uint, status model.CompletionStatus, at time.Time) (*model.Completion, error) {
	if !reviewer.IsParent {
		return nil, ErrForbidden
	}
	completion, err := s.completionRepo.FindByID(ctx, reviewer.FamilyID, completionID)
	if err != nil {
		return nil, err
	}
	if completion.Status != model.StatusPendingReview {
		return nil, repository.ErrConflict
	}
	if err := s.completionRepo.Review(ctx, completion, completion.Version, status, reviewer.ID, at); err != nil {
		return nil, err
	}
	return completion, nil
}
