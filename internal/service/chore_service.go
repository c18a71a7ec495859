package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chore-tracker/internal/model"
	"chore-tracker/internal/recurrence"
	"chore-tracker/internal/repository"
)

var (
	// ErrValidation marks input rejected before anything is stored.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when a member lacks the parent role.
	ErrForbidden = errors.New("only parents can do that")
)

// ChoreInput represents data required to create a chore.
// A nil Pattern makes a one-off chore due on DueDate.
type ChoreInput struct {
	Title       string
	Description string
	Category    string
	DueDate     *time.Time
	Pattern     recurrence.Pattern
	// Location is the family zone the start date is taken in.
	// Nil falls back to the location of now.
	Location *time.Location
}

// ChoreService wraps chore-related business logic.
type ChoreService struct {
	taskRepo       *repository.TaskRepository
	categoryRepo   *repository.CategoryRepository
	completionRepo *repository.CompletionRepository
}

func NewChoreService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, completionRepo *repository.CompletionRepository) *ChoreService {
	return &ChoreService{taskRepo: taskRepo, categoryRepo: categoryRepo, completionRepo: completionRepo}
}

// CreateChore stores a chore. Recurring chores start on DueDate, or on now
// when no date is given.
func (s *ChoreService) CreateChore(ctx context.Context, member *model.Member, input ChoreInput, now time.Time) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !member.IsParent {
		return nil, ErrForbidden
	}

	task := model.Task{
		FamilyID:    member.FamilyID,
		CreatedByID: member.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
	}

	if input.Pattern != nil {
		start := now
		if input.DueDate != nil {
			start = *input.DueDate
		}
		loc := input.Location
		if loc == nil {
			loc = now.Location()
		}
		rule, err := recurrence.Encode(input.Pattern, start, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		task.IsRecurring = true
		task.RRule = &rule
	} else if input.DueDate == nil {
		return nil, fmt.Errorf("%w: one-off chores need a due date", ErrValidation)
	}

	if input.Category != "" {
		category, err := s.categoryRepo.GetOrCreate(ctx, member.FamilyID, input.Category)
		if err != nil {
			return nil, err
		}
		if category != nil {
			task.CategoryID = &category.ID
		}
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListChores returns every chore of the family.
func (s *ChoreService) ListChores(ctx context.Context, familyID uint) ([]model.Task, error) {
	return s.taskRepo.ListByFamily(ctx, familyID)
}

// GetChore loads one chore of the member's family.
func (s *ChoreService) GetChore(ctx context.Context, member *model.Member, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, member.FamilyID, taskID)
}

// Complete records member finishing a chore. Parents' completions count as
// completed right away; everyone else's wait for review.
func (s *ChoreService) Complete(ctx context.Context, member *model.Member, taskID uint, completedAt time.Time) (*model.Completion, error) {
	task, err := s.taskRepo.FindByID(ctx, member.FamilyID, taskID)
	if err != nil {
		return nil, err
	}

	status := model.StatusPendingReview
	if member.IsParent {
		status = model.StatusCompleted
	}
	completion := model.Completion{
		TaskID:      task.ID,
		MemberID:    member.ID,
		CompletedAt: completedAt,
		Status:      status,
	}
	if err := s.completionRepo.Create(ctx, &completion); err != nil {
		return nil, err
	}
	return &completion, nil
}

// DeleteChore removes a chore and its history.
func (s *ChoreService) DeleteChore(ctx context.Context, member *model.Member, taskID uint) error {
	if !member.IsParent {
		return ErrForbidden
	}
	return s.taskRepo.Delete(ctx, member.FamilyID, taskID)
}

// NextDates lists the next count dates a chore is due after now.
func (s *ChoreService) NextDates(ctx context.Context, member *model.Member, taskID uint, now time.Time, loc *time.Location, count int) (*model.Task, []time.Time, error) {
	task, err := s.taskRepo.FindByID(ctx, member.FamilyID, taskID)
	if err != nil {
		return nil, nil, err
	}
	if !task.IsRecurring {
		if task.DueDate != nil && !recurrence.StartOfDay(*task.DueDate, loc).Before(recurrence.StartOfDay(now, loc)) {
			return task, []time.Time{*task.DueDate}, nil
		}
		return task, nil, nil
	}
	if task.RRule == nil {
		return task, nil, nil
	}
	dates, err := recurrence.NextAfter(*task.RRule, now.AddDate(0, 0, -1), count, recurrence.EvalOptions{
		Location:  loc,
		CreatedAt: task.CreatedAt,
		TaskID:    task.ID,
	})
	if err != nil {
		return task, nil, err
	}
	return task, dates, nil
}
