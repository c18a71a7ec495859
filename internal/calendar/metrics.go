package calendar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRange is returned when a period starts after it ends.
var ErrInvalidRange = errors.New("invalid date range")

// ErrUnknownKind is returned for a period kind other than weekly or monthly.
var ErrUnknownKind = errors.New("unknown period kind")

// DateLayout is the day format used in rollups.
const DateLayout = "2006-01-02"

// Kind selects the period-specific fields of a rollup.
type Kind string

const (
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

// ParseKind accepts "weekly" or "monthly".
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case Weekly, Monthly:
		return Kind(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// DayMetric is the completion summary of one calendar day.
type DayMetric struct {
	Date                 string `json:"date" yaml:"date"`
	TotalTasks           int    `json:"total_tasks" yaml:"total_tasks"`
	CompletedTasks       int    `json:"completed_tasks" yaml:"completed_tasks"`
	CompletionPercentage int    `json:"completion_percentage" yaml:"completion_percentage"`
	HasPerfectCompletion bool   `json:"has_perfect_completion" yaml:"has_perfect_completion"`

	day time.Time
}

// Day returns the metric's date at local midnight.
func (m DayMetric) Day() time.Time {
	return m.day
}

func newDayMetric(day time.Time, total, completed int) DayMetric {
	return DayMetric{
		Date:                 day.Format(DateLayout),
		TotalTasks:           total,
		CompletedTasks:       completed,
		CompletionPercentage: percentage(completed, total),
		HasPerfectCompletion: total > 0 && completed == total,
		day:                  day,
	}
}

// PeriodRollup folds the day metrics of a week or month.
type PeriodRollup struct {
	Kind                 Kind        `json:"kind" yaml:"kind"`
	PeriodStart          string      `json:"period_start" yaml:"period_start"`
	PeriodEnd            string      `json:"period_end" yaml:"period_end"`
	Days                 []DayMetric `json:"days" yaml:"days"`
	TotalTasks           int         `json:"total_tasks" yaml:"total_tasks"`
	CompletedTasks       int         `json:"completed_tasks" yaml:"completed_tasks"`
	CompletionPercentage int         `json:"completion_percentage" yaml:"completion_percentage"`
	TrendVsPrevious      int         `json:"trend_vs_previous" yaml:"trend_vs_previous"`

	// Weekly only.
	BestDay *DayMetric `json:"best_day,omitempty" yaml:"best_day,omitempty"`

	// Monthly only.
	PerfectDaysCount           *int `json:"perfect_days_count,omitempty" yaml:"perfect_days_count,omitempty"`
	AverageDailyCompletionRate *int `json:"average_daily_completion_rate,omitempty" yaml:"average_daily_completion_rate,omitempty"`
}

// roundHalfUp rounds .5 toward positive infinity, so -87.5 becomes -87.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := roundHalfUp(float64(completed) / float64(total) * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Trend is the rounded percentage change between two completed-task
// counts, 0 when the previous count is 0.
func Trend(current, previous int) int {
	if previous <= 0 {
		return 0
	}
	return roundHalfUp(float64(current-previous) / float64(previous) * 100)
}

// Streak counts the trailing run of perfect days. Days with nothing due
// neither extend nor break the run.
func Streak(days []DayMetric) int {
	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		switch {
		case days[i].TotalTasks == 0:
			continue
		case days[i].HasPerfectCompletion:
			streak++
		default:
			return streak
		}
	}
	return streak
}
