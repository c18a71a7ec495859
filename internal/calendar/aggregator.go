package calendar

import (
	"fmt"
	"log"
	"time"

	"chore-tracker/internal/model"
	"chore-tracker/internal/recurrence"
)

// Aggregator rolls tasks and completions up into day and period metrics.
// It holds no state besides its settings and is safe for concurrent use.
type Aggregator struct {
	// Location defines calendar days. Nil means UTC.
	Location *time.Location
	// Logger receives malformed-rule warnings. Nil means log.Default().
	Logger *log.Logger
}

// New returns an Aggregator for loc that logs to log.Default().
func New(loc *time.Location) *Aggregator {
	return &Aggregator{Location: loc}
}

func (a *Aggregator) location() *time.Location {
	if a == nil || a.Location == nil {
		return time.UTC
	}
	return a.Location
}

func (a *Aggregator) logger() *log.Logger {
	if a == nil || a.Logger == nil {
		return log.Default()
	}
	return a.Logger
}

// dayNumber counts calendar days since the epoch, ignoring DST shifts.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func (a *Aggregator) bounds(start, end time.Time) (time.Time, time.Time, error) {
	loc := a.location()
	from := recurrence.StartOfDay(start, loc)
	to := recurrence.StartOfDay(end, loc)
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s is after %s",
			ErrInvalidRange, from.Format(DateLayout), to.Format(DateLayout))
	}
	return from, to, nil
}

// Days computes one DayMetric per day in [start, end].
func (a *Aggregator) Days(tasks []model.Task, completions []model.Completion, start, end time.Time) ([]DayMetric, error) {
	from, to, err := a.bounds(start, end)
	if err != nil {
		return nil, err
	}

	base := dayNumber(from)
	n := dayNumber(to) - base + 1
	totals := make([]int, n)
	completed := make([]int, n)

	for _, task := range tasks {
		for _, idx := range a.dueDays(task, from, to) {
			totals[idx-base]++
		}
	}

	loc := a.location()
	for _, c := range completions {
		if !c.Status.CountsAsDone() {
			continue
		}
		idx := dayNumber(c.CompletedAt.In(loc)) - base
		if idx >= 0 && idx < n {
			completed[idx]++
		}
	}

	days := make([]DayMetric, n)
	for i := range days {
		days[i] = newDayMetric(from.AddDate(0, 0, i), totals[i], completed[i])
	}
	return days, nil
}

// dueDays returns the day numbers in [from, to] on which task is due.
// A malformed rule is logged and yields no days.
func (a *Aggregator) dueDays(task model.Task, from, to time.Time) []int {
	loc := a.location()
	if !task.IsRecurring {
		if task.DueDate == nil {
			return nil
		}
		due := dayNumber(task.DueDate.In(loc))
		if due < dayNumber(from) || due > dayNumber(to) {
			return nil
		}
		return []int{due}
	}

	if task.RRule == nil {
		return nil
	}
	rule, err := recurrence.Decode(*task.RRule)
	if err != nil {
		recurrence.LogMalformed(a.logger(), err, task.ID)
		return nil
	}
	hits, err := rule.Between(from, to, recurrence.EvalOptions{
		Location:  loc,
		CreatedAt: task.CreatedAt,
		TaskID:    task.ID,
	})
	if err != nil {
		recurrence.LogMalformed(a.logger(), err, task.ID)
		return nil
	}

	days := make([]int, 0, len(hits))
	last := -1
	for _, hit := range hits {
		day := dayNumber(hit.In(loc))
		if day == last {
			continue
		}
		days = append(days, day)
		last = day
	}
	return days
}

// completedBetween counts done completions in [from, to].
func (a *Aggregator) completedBetween(completions []model.Completion, from, to time.Time) int {
	loc := a.location()
	lo, hi := dayNumber(from), dayNumber(to)
	count := 0
	for _, c := range completions {
		if !c.Status.CountsAsDone() {
			continue
		}
		day := dayNumber(c.CompletedAt.In(loc))
		if day >= lo && day <= hi {
			count++
		}
	}
	return count
}

// Rollup computes the period summary for [start, end], the kind-specific
// extras and the trend against the previous period.
func (a *Aggregator) Rollup(kind Kind, tasks []model.Task, completions []model.Completion, start, end time.Time) (PeriodRollup, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return PeriodRollup{}, err
	}
	from, to, err := a.bounds(start, end)
	if err != nil {
		return PeriodRollup{}, err
	}
	days, err := a.Days(tasks, completions, from, to)
	if err != nil {
		return PeriodRollup{}, err
	}

	rollup := Fold(kind, days)
	rollup.PeriodStart = from.Format(DateLayout)
	rollup.PeriodEnd = to.Format(DateLayout)

	prevFrom, prevTo := PreviousPeriod(kind, from, to)
	rollup.TrendVsPrevious = Trend(rollup.CompletedTasks, a.completedBetween(completions, prevFrom, prevTo))
	return rollup, nil
}

// Week computes the weekly rollup of the week containing day.
func (a *Aggregator) Week(tasks []model.Task, completions []model.Completion, day time.Time, weekStart time.Weekday) (PeriodRollup, error) {
	from, to := WeekOf(day, weekStart, a.location())
	return a.Rollup(Weekly, tasks, completions, from, to)
}

// Month computes the monthly rollup of the month containing day.
func (a *Aggregator) Month(tasks []model.Task, completions []model.Completion, day time.Time) (PeriodRollup, error) {
	from, to := MonthOf(day, a.location())
	return a.Rollup(Monthly, tasks, completions, from, to)
}

// Fold sums days into a rollup without the trend.
func Fold(kind Kind, days []DayMetric) PeriodRollup {
	rollup := PeriodRollup{Kind: kind, Days: days}
	for _, d := range days {
		rollup.TotalTasks += d.TotalTasks
		rollup.CompletedTasks += d.CompletedTasks
	}
	rollup.CompletionPercentage = percentage(rollup.CompletedTasks, rollup.TotalTasks)

	switch kind {
	case Weekly:
		rollup.BestDay = bestDay(days)
	case Monthly:
		perfect, average := monthlyExtras(days)
		rollup.PerfectDaysCount = &perfect
		rollup.AverageDailyCompletionRate = &average
	}
	return rollup
}

// bestDay picks the highest percentage, earliest date on ties.
func bestDay(days []DayMetric) *DayMetric {
	if len(days) == 0 {
		return nil
	}
	best := days[0]
	for _, d := range days[1:] {
		if d.CompletionPercentage > best.CompletionPercentage {
			best = d
		}
	}
	return &best
}

func monthlyExtras(days []DayMetric) (perfect, average int) {
	var sum, active int
	for _, d := range days {
		if d.HasPerfectCompletion {
			perfect++
		}
		if d.TotalTasks > 0 {
			sum += d.CompletionPercentage
			active++
		}
	}
	if active > 0 {
		average = roundHalfUp(float64(sum) / float64(active))
	}
	return perfect, average
}
