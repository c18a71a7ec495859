package model

import "time"

// Task is a chore. One-off chores are due on DueDate; recurring chores
// carry an encoded rule in RRule.
type Task struct {
	ID          uint  `gorm:"primaryKey"`
	FamilyID    uint  `gorm:"index"`
	CategoryID  *uint `gorm:"index"`
	CreatedByID uint
	Title       string
	Description string
	DueDate     *time.Time
	IsRecurring bool `gorm:"default:false"`
	RRule       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
