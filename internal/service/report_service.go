package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"chore-tracker/internal/calendar"
	"chore-tracker/internal/model"
	"chore-tracker/internal/recurrence"
	"chore-tracker/internal/repository"
)

// AgendaItem is one chore due on the agenda day.
type AgendaItem struct {
	Task   model.Task
	Status model.CompletionStatus
}

// Done reports whether the chore counts as done for the day.
func (i AgendaItem) Done() bool {
	return i.Status.CountsAsDone()
}

// ReportService builds agendas and period rollups for families.
type ReportService struct {
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	categoryRepo   *repository.CategoryRepository
	weekStart      time.Weekday
}

func NewReportService(taskRepo *repository.TaskRepository, completionRepo *repository.CompletionRepository, categoryRepo *repository.CategoryRepository, weekStart time.Weekday) *ReportService {
	return &ReportService{
		taskRepo:       taskRepo,
		completionRepo: completionRepo,
		categoryRepo:   categoryRepo,
		weekStart:      weekStart,
	}
}

// Agenda lists the chores due on now's calendar day in the family's zone.
func (s *ReportService) Agenda(ctx context.Context, family model.Family, now time.Time) ([]AgendaItem, error) {
	loc := family.Location()
	tasks, err := s.taskRepo.ListByFamily(ctx, family.ID)
	if err != nil {
		return nil, err
	}
	dayStart := recurrence.StartOfDay(now, loc)
	completions, err := s.completionRepo.ListBetween(ctx, family.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	latest := make(map[uint]model.CompletionStatus)
	for _, c := range completions {
		if prev, ok := latest[c.TaskID]; ok && prev.CountsAsDone() && !c.Status.CountsAsDone() {
			continue
		}
		latest[c.TaskID] = c.Status
	}

	var items []AgendaItem
	for _, task := range tasks {
		var due bool
		if task.IsRecurring {
			due = recurrence.OccursOn(task.RRule, now, recurrence.EvalOptions{
				Location:  loc,
				CreatedAt: task.CreatedAt,
				TaskID:    task.ID,
			})
		} else {
			due = recurrence.DueOn(task.DueDate, now, loc)
		}
		if !due {
			continue
		}
		items = append(items, AgendaItem{Task: task, Status: latest[task.ID]})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return !items[i].Done() && items[j].Done()
	})
	return items, nil
}

// DailySummary renders the agenda as Telegram HTML.
func (s *ReportService) DailySummary(ctx context.Context, family model.Family, now time.Time) (string, error) {
	items, err := s.Agenda(ctx, family, now)
	if err != nil {
		return "", err
	}
	catNames, err := s.categoryNames(ctx, family.ID)
	if err != nil {
		return "", err
	}
	return FormatAgenda(items, catNames, now.In(family.Location())), nil
}

// Period returns the aligned week or month containing day.
func (s *ReportService) Period(kind calendar.Kind, day time.Time, loc *time.Location) (time.Time, time.Time) {
	if kind == calendar.Monthly {
		return calendar.MonthOf(day, loc)
	}
	return calendar.WeekOf(day, s.weekStart, loc)
}

// RollupFor computes the rollup of the week or month containing day.
func (s *ReportService) RollupFor(ctx context.Context, family model.Family, kind calendar.Kind, day time.Time) (calendar.PeriodRollup, error) {
	from, to := s.Period(kind, day, family.Location())
	return s.Rollup(ctx, family, kind, from, to)
}

// Rollup loads the snapshot covering [from, to] and its previous period and
// hands it to the aggregator.
func (s *ReportService) Rollup(ctx context.Context, family model.Family, kind calendar.Kind, from, to time.Time) (calendar.PeriodRollup, error) {
	loc := family.Location()
	from, to = recurrence.StartOfDay(from, loc), recurrence.StartOfDay(to, loc)
	if from.After(to) {
		return calendar.PeriodRollup{}, fmt.Errorf("%w: %s is after %s", calendar.ErrInvalidRange,
			from.Format(calendar.DateLayout), to.Format(calendar.DateLayout))
	}

	tasks, err := s.taskRepo.ListByFamily(ctx, family.ID)
	if err != nil {
		return calendar.PeriodRollup{}, err
	}
	prevFrom, _ := calendar.PreviousPeriod(kind, from, to)
	completions, err := s.completionRepo.ListBetween(ctx, family.ID, prevFrom, to.AddDate(0, 0, 1))
	if err != nil {
		return calendar.PeriodRollup{}, err
	}

	agg := calendar.New(loc)
	return agg.Rollup(kind, tasks, completions, from, to)
}

// RollupSummary renders the rollup of the period containing now.
func (s *ReportService) RollupSummary(ctx context.Context, family model.Family, kind calendar.Kind, now time.Time) (string, error) {
	rollup, err := s.RollupFor(ctx, family, kind, now)
	if err != nil {
		return "", err
	}
	return FormatRollup(family.Name, rollup), nil
}

func (s *ReportService) categoryNames(ctx context.Context, familyID uint) (map[uint]string, error) {
	categories, err := s.categoryRepo.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return names, nil
}

// FormatAgenda renders agenda items for day.
func FormatAgenda(items []AgendaItem, catNames map[uint]string, day time.Time) string {
	var builder strings.Builder
	builder.WriteString("📋 <b>Today's chores</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", day.Format("Mon, 02 Jan 2006")))

	if len(items) == 0 {
		builder.WriteString("— nothing due today\n")
		return strings.TrimSpace(builder.String())
	}

	done := 0
	for _, item := range items {
		if item.Done() {
			done++
		}
		builder.WriteString(formatAgendaItem(item, catNames))
	}
	builder.WriteString(fmt.Sprintf("\n✅ %d of %d done", done, len(items)))
	return strings.TrimSpace(builder.String())
}

func formatAgendaItem(item AgendaItem, catNames map[uint]string) string {
	var sb strings.Builder

	icon := "⬜"
	switch item.Status {
	case model.StatusCompleted:
		icon = "✅"
	case model.StatusPendingReview:
		icon = "⏳"
	case model.StatusRejected:
		icon = "↩️"
	}
	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, item.Task.ID, html.EscapeString(item.Task.Title)))

	if item.Task.CategoryID != nil {
		if name, ok := catNames[*item.Task.CategoryID]; ok && strings.TrimSpace(name) != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(strings.TrimSpace(name))))
		}
	}
	if item.Task.IsRecurring && item.Task.RRule != nil {
		if p := recurrence.Parse(*item.Task.RRule); p != nil {
			sb.WriteString(" · " + recurrence.Describe(p))
		}
	}
	if item.Status == model.StatusRejected {
		sb.WriteString(" — sent back, try again")
	}

	sb.WriteByte('\n')
	return sb.String()
}

// FormatRollup renders a weekly or monthly rollup.
func FormatRollup(familyName string, r calendar.PeriodRollup) string {
	var sb strings.Builder

	title, unit := "Weekly report", "week"
	if r.Kind == calendar.Monthly {
		title, unit = "Monthly report", "month"
	}
	sb.WriteString(fmt.Sprintf("📊 <b>%s</b>", title))
	if familyName != "" {
		sb.WriteString(" · " + html.EscapeString(familyName))
	}
	sb.WriteString(fmt.Sprintf("\n🗓 %s – %s\n\n", r.PeriodStart, r.PeriodEnd))

	sb.WriteString(fmt.Sprintf("✅ Done: %d of %d (%d%%)\n", r.CompletedTasks, r.TotalTasks, r.CompletionPercentage))
	sb.WriteString(fmt.Sprintf("📈 Trend: %s vs previous %s\n", signed(r.TrendVsPrevious), unit))

	if r.BestDay != nil && r.BestDay.TotalTasks > 0 {
		sb.WriteString(fmt.Sprintf("🏆 Best day: %s (%d%%)\n", weekdayDate(*r.BestDay), r.BestDay.CompletionPercentage))
	}
	if r.PerfectDaysCount != nil {
		sb.WriteString(fmt.Sprintf("⭐ Perfect days: %d\n", *r.PerfectDaysCount))
	}
	if r.AverageDailyCompletionRate != nil {
		sb.WriteString(fmt.Sprintf("📐 Average day: %d%%\n", *r.AverageDailyCompletionRate))
	}
	if streak := calendar.Streak(r.Days); streak > 0 {
		sb.WriteString(fmt.Sprintf("🔥 Perfect streak: %d\n", streak))
	}

	if r.Kind == calendar.Weekly {
		sb.WriteByte('\n')
		for _, d := range r.Days {
			sb.WriteString(formatDayLine(d))
		}
	}
	return strings.TrimSpace(sb.String())
}

func formatDayLine(d calendar.DayMetric) string {
	label := weekdayDate(d)
	switch {
	case d.TotalTasks == 0:
		return fmt.Sprintf("%s  · nothing due\n", label)
	case d.HasPerfectCompletion:
		return fmt.Sprintf("%s  ⭐ %d/%d\n", label, d.CompletedTasks, d.TotalTasks)
	default:
		return fmt.Sprintf("%s  ▪️ %d/%d (%d%%)\n", label, d.CompletedTasks, d.TotalTasks, d.CompletionPercentage)
	}
}

func weekdayDate(d calendar.DayMetric) string {
	day, err := time.Parse(calendar.DateLayout, d.Date)
	if err != nil {
		return d.Date
	}
	return day.Format("Mon 01-02")
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d%%", n)
	}
	return fmt.Sprintf("%d%%", n)
}
