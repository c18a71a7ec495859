package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"chore-tracker/internal/model"
)

// TaskRepository handles CRUD for chores.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByFamily returns every chore of the family, one-off chores by due date first.
func (r *TaskRepository) ListByFamily(ctx context.Context, familyID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("family_id = ?", familyID).
		Order("is_recurring ASC, due_date NULLS LAST, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, familyID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("family_id = ? AND id = ?", familyID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a chore and its completions.
func (r *TaskRepository) Delete(ctx context.Context, familyID, taskID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("family_id = ? AND id = ?", familyID, taskID).Delete(&model.Task{})
		if res.Error != nil {
			return fmt.Errorf("delete task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Completion{}).Error; err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		return nil
	})
}
