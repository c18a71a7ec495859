package model

import "time"

// CompletionStatus tracks a completion through review.
type CompletionStatus string

const (
	StatusPending       CompletionStatus = "pending"
	StatusPendingReview CompletionStatus = "pending_review"
	StatusCompleted     CompletionStatus = "completed"
	StatusRejected      CompletionStatus = "rejected"
)

// CountsAsDone reports whether the completion counts toward daily metrics.
func (s CompletionStatus) CountsAsDone() bool {
	return s == StatusCompleted || s == StatusPendingReview
}

// Completion records a member marking a chore as done.
type Completion struct {
	ID           uint             `gorm:"primaryKey"`
	TaskID       uint             `gorm:"index"`
	MemberID     uint             `gorm:"index"`
	CompletedAt  time.Time        `gorm:"index"`
	Status       CompletionStatus `gorm:"size:32;index"`
	Version      int              `gorm:"default:1"`
	ReviewedByID *uint
	ReviewedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
