package calendar

import (
	"bytes"
	"encoding/json"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chore-tracker/internal/model"
	"chore-tracker/internal/recurrence"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func oneOff(id uint, due time.Time) model.Task {
	return model.Task{ID: id, DueDate: &due, CreatedAt: due}
}

func recurring(t *testing.T, id uint, p recurrence.Pattern, start time.Time) model.Task {
	t.Helper()
	rule, err := recurrence.Encode(p, start, time.UTC)
	require.NoError(t, err)
	return model.Task{ID: id, IsRecurring: true, RRule: &rule, CreatedAt: start}
}

func done(taskID uint, at time.Time, status model.CompletionStatus) model.Completion {
	return model.Completion{TaskID: taskID, CompletedAt: at, Status: status}
}

func quietAggregator() (*Aggregator, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Aggregator{Location: time.UTC, Logger: log.New(&buf, "", 0)}, &buf
}

func TestDays_ScenarioA_OneOffCompleted(t *testing.T) {
	agg, _ := quietAggregator()
	tasks := []model.Task{oneOff(1, day(2025, time.March, 10))}
	completions := []model.Completion{
		done(1, time.Date(2025, time.March, 10, 17, 0, 0, 0, time.UTC), model.StatusCompleted),
	}

	days, err := agg.Days(tasks, completions, day(2025, time.March, 10), day(2025, time.March, 10))
	require.NoError(t, err)
	require.Len(t, days, 1)

	assert.Equal(t, "2025-03-10", days[0].Date)
	assert.Equal(t, 1, days[0].TotalTasks)
	assert.Equal(t, 1, days[0].CompletedTasks)
	assert.Equal(t, 100, days[0].CompletionPercentage)
	assert.True(t, days[0].HasPerfectCompletion)
}

func TestRollup_ScenarioB_DailyWithoutCompletions(t *testing.T) {
	agg, _ := quietAggregator()
	tasks := []model.Task{recurring(t, 1, recurrence.Daily{Interval: 1}, day(2025, time.January, 1))}

	rollup, err := agg.Rollup(Weekly, tasks, nil, day(2025, time.January, 1), day(2025, time.January, 7))
	require.NoError(t, err)

	assert.Len(t, rollup.Days, 7)
	for _, d := range rollup.Days {
		assert.Equal(t, 1, d.TotalTasks, d.Date)
	}
	assert.Equal(t, 7, rollup.TotalTasks)
	assert.Equal(t, 0, rollup.CompletedTasks)
	assert.Equal(t, 0, rollup.CompletionPercentage)
	require.NotNil(t, rollup.BestDay)
	assert.Equal(t, "2025-01-01", rollup.BestDay.Date)
	assert.Nil(t, rollup.PerfectDaysCount)
}

func TestDays_ScenarioC_MalformedRuleIsSkipped(t *testing.T) {
	agg, logs := quietAggregator()
	bad := "FREQ=NONSENSE;INTERVAL=1"
	tasks := []model.Task{
		{ID: 7, IsRecurring: true, RRule: &bad, CreatedAt: day(2025, time.January, 1)},
		oneOff(8, day(2025, time.January, 2)),
	}

	days, err := agg.Days(tasks, nil, day(2025, time.January, 1), day(2025, time.January, 3))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 0}, totals(days))
	assert.Contains(t, logs.String(), "task=7")
	assert.Contains(t, logs.String(), bad)
}

func TestDays_RecurringWithoutRuleIsNeverDue(t *testing.T) {
	agg, _ := quietAggregator()
	tasks := []model.Task{{ID: 1, IsRecurring: true, CreatedAt: day(2025, time.January, 1)}}

	days, err := agg.Days(tasks, nil, day(2025, time.January, 1), day(2025, time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, totals(days))
}

func TestDays_OnlyDoneStatusesCount(t *testing.T) {
	agg, _ := quietAggregator()
	d := day(2025, time.March, 10)
	tasks := []model.Task{oneOff(1, d), oneOff(2, d), oneOff(3, d), oneOff(4, d)}
	completions := []model.Completion{
		done(1, d.Add(time.Hour), model.StatusCompleted),
		done(2, d.Add(2*time.Hour), model.StatusPendingReview),
		done(3, d.Add(3*time.Hour), model.StatusRejected),
		done(4, d.Add(4*time.Hour), model.StatusPending),
	}

	days, err := agg.Days(tasks, completions, d, d)
	require.NoError(t, err)
	assert.Equal(t, 4, days[0].TotalTasks)
	assert.Equal(t, 2, days[0].CompletedTasks)
	assert.Equal(t, 50, days[0].CompletionPercentage)
	assert.False(t, days[0].HasPerfectCompletion)
}

func TestDays_PercentageStaysInRange(t *testing.T) {
	agg, _ := quietAggregator()
	d := day(2025, time.March, 10)
	tasks := []model.Task{oneOff(1, d), oneOff(2, d), oneOff(3, d)}
	completions := []model.Completion{
		done(1, d, model.StatusCompleted),
		done(9, d.AddDate(0, 0, 1), model.StatusCompleted),
		done(9, d.AddDate(0, 0, 1), model.StatusCompleted),
	}

	days, err := agg.Days(tasks, completions, d, d.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 33, days[0].CompletionPercentage)
	// Completions on a day with nothing due.
	assert.Equal(t, 0, days[1].TotalTasks)
	assert.Equal(t, 2, days[1].CompletedTasks)
	assert.Equal(t, 0, days[1].CompletionPercentage)
	assert.False(t, days[1].HasPerfectCompletion)

	for _, m := range days {
		assert.GreaterOrEqual(t, m.CompletionPercentage, 0)
		assert.LessOrEqual(t, m.CompletionPercentage, 100)
	}
}

func TestDays_ExtraCompletionsAreNotPerfect(t *testing.T) {
	agg, _ := quietAggregator()
	d := day(2025, time.March, 10)
	tasks := []model.Task{oneOff(1, d)}
	completions := []model.Completion{
		done(1, d.Add(9*time.Hour), model.StatusCompleted),
		done(1, d.Add(18*time.Hour), model.StatusCompleted),
	}

	days, err := agg.Days(tasks, completions, d, d)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0].TotalTasks)
	assert.Equal(t, 2, days[0].CompletedTasks)
	assert.Equal(t, 100, days[0].CompletionPercentage)
	assert.False(t, days[0].HasPerfectCompletion)
}

func TestDays_InvalidRange(t *testing.T) {
	agg, _ := quietAggregator()
	_, err := agg.Days(nil, nil, day(2025, time.March, 11), day(2025, time.March, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = agg.Rollup(Monthly, nil, nil, day(2025, time.March, 11), day(2025, time.March, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRollup_UnknownKind(t *testing.T) {
	agg, _ := quietAggregator()
	_, err := agg.Rollup(Kind("yearly"), nil, nil, day(2025, time.March, 1), day(2025, time.March, 2))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDays_UsesLocationForDayBoundaries(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	agg := &Aggregator{Location: zone, Logger: log.New(&bytes.Buffer{}, "", 0)}
	due := time.Date(2025, time.March, 10, 0, 0, 0, 0, zone)
	tasks := []model.Task{oneOff(1, due)}
	// 22:30 UTC on the 9th is already the 10th in UTC+3.
	completions := []model.Completion{done(1, time.Date(2025, time.March, 9, 22, 30, 0, 0, time.UTC), model.StatusCompleted)}

	days, err := agg.Days(tasks, completions, due, due)
	require.NoError(t, err)
	assert.Equal(t, 1, days[0].CompletedTasks)
	assert.True(t, days[0].HasPerfectCompletion)
}

func TestRollup_WeeklyBestDayAndTrend(t *testing.T) {
	agg, _ := quietAggregator()
	tasks := []model.Task{recurring(t, 1, recurrence.Daily{Interval: 1}, day(2025, time.March, 1))}
	completions := []model.Completion{
		// previous week: two
		done(1, day(2025, time.March, 4), model.StatusCompleted),
		done(1, day(2025, time.March, 6), model.StatusCompleted),
		// this week: three
		done(1, day(2025, time.March, 12), model.StatusCompleted),
		done(1, day(2025, time.March, 14), model.StatusPendingReview),
		done(1, day(2025, time.March, 15), model.StatusCompleted),
	}

	rollup, err := agg.Week(tasks, completions, day(2025, time.March, 13), time.Monday)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", rollup.PeriodStart)
	assert.Equal(t, "2025-03-16", rollup.PeriodEnd)
	assert.Equal(t, 7, rollup.TotalTasks)
	assert.Equal(t, 3, rollup.CompletedTasks)
	assert.Equal(t, 43, rollup.CompletionPercentage)
	assert.Equal(t, 50, rollup.TrendVsPrevious)
	require.NotNil(t, rollup.BestDay)
	assert.Equal(t, "2025-03-12", rollup.BestDay.Date)
}

func TestRollup_TrendIsZeroWithoutPreviousCompletions(t *testing.T) {
	agg, _ := quietAggregator()
	tasks := []model.Task{recurring(t, 1, recurrence.Daily{Interval: 1}, day(2025, time.March, 1))}
	completions := []model.Completion{
		done(1, day(2025, time.March, 10), model.StatusCompleted),
		done(1, day(2025, time.March, 11), model.StatusCompleted),
		// rejected work in the previous week does not count
		done(1, day(2025, time.March, 5), model.StatusRejected),
	}

	rollup, err := agg.Rollup(Weekly, tasks, completions, day(2025, time.March, 10), day(2025, time.March, 16))
	require.NoError(t, err)
	assert.Equal(t, 2, rollup.CompletedTasks)
	assert.Equal(t, 0, rollup.TrendVsPrevious)
}

func TestRollup_Monthly(t *testing.T) {
	agg, _ := quietAggregator()
	tasks := []model.Task{
		oneOff(1, day(2025, time.February, 3)),
		oneOff(2, day(2025, time.February, 3)),
		oneOff(3, day(2025, time.February, 10)),
		oneOff(4, day(2025, time.February, 20)),
	}
	completions := []model.Completion{
		done(1, day(2025, time.February, 3), model.StatusCompleted),
		done(3, day(2025, time.February, 10), model.StatusCompleted),
		done(4, day(2025, time.February, 20), model.StatusCompleted),
		// January
		done(9, day(2025, time.January, 15), model.StatusCompleted),
		done(9, day(2025, time.January, 16), model.StatusCompleted),
		done(9, day(2025, time.January, 17), model.StatusCompleted),
		done(9, day(2025, time.January, 18), model.StatusCompleted),
	}

	rollup, err := agg.Month(tasks, completions, day(2025, time.February, 14))
	require.NoError(t, err)

	assert.Equal(t, "2025-02-01", rollup.PeriodStart)
	assert.Equal(t, "2025-02-28", rollup.PeriodEnd)
	assert.Len(t, rollup.Days, 28)
	assert.Equal(t, 4, rollup.TotalTasks)
	assert.Equal(t, 3, rollup.CompletedTasks)
	assert.Equal(t, 75, rollup.CompletionPercentage)
	require.NotNil(t, rollup.PerfectDaysCount)
	assert.Equal(t, 2, *rollup.PerfectDaysCount)
	require.NotNil(t, rollup.AverageDailyCompletionRate)
	// (50 + 100 + 100) / 3
	assert.Equal(t, 83, *rollup.AverageDailyCompletionRate)
	assert.Equal(t, -25, rollup.TrendVsPrevious)
	assert.Nil(t, rollup.BestDay)
}

func TestRollup_MonthlyWithoutDueDays(t *testing.T) {
	agg, _ := quietAggregator()
	rollup, err := agg.Month(nil, nil, day(2025, time.April, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, *rollup.PerfectDaysCount)
	assert.Equal(t, 0, *rollup.AverageDailyCompletionRate)
	assert.Equal(t, 0, rollup.CompletionPercentage)
}

func TestRollup_JSONShape(t *testing.T) {
	agg, _ := quietAggregator()
	tasks := []model.Task{oneOff(1, day(2025, time.March, 10))}
	rollup, err := agg.Rollup(Weekly, tasks, nil, day(2025, time.March, 10), day(2025, time.March, 16))
	require.NoError(t, err)

	raw, err := json.Marshal(rollup)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"kind", "days", "total_tasks", "completed_tasks", "completion_percentage", "trend_vs_previous", "best_day"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "perfect_days_count")
	days := doc["days"].([]any)
	assert.Equal(t, "2025-03-10", days[0].(map[string]any)["date"])
}

func TestAggregator_ConcurrentUse(t *testing.T) {
	agg, _ := quietAggregator()
	tasks := []model.Task{recurring(t, 1, recurrence.Weekly{Interval: 1, Days: []time.Weekday{time.Monday}}, day(2025, time.January, 6))}

	results := make(chan int, 8)
	for i := 0; i < 8; i++ {
		go func() {
			rollup, err := agg.Month(tasks, nil, day(2025, time.January, 20))
			if err != nil {
				results <- -1
				return
			}
			results <- rollup.TotalTasks
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, 4, <-results)
	}
}

func totals(days []DayMetric) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = d.TotalTasks
	}
	return out
}
