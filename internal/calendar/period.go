package calendar

import (
	"time"

	"chore-tracker/internal/recurrence"
)

// WeekOf returns the first and last day of the week containing day.
func WeekOf(day time.Time, weekStart time.Weekday, loc *time.Location) (time.Time, time.Time) {
	start := recurrence.StartOfDay(day, loc)
	offset := (int(start.Weekday()) - int(weekStart) + 7) % 7
	start = start.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// MonthOf returns the first and last day of the month containing day.
func MonthOf(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := recurrence.StartOfDay(day, loc)
	y, m, _ := start.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, start.Location())
	return first, first.AddDate(0, 1, -1)
}

// PreviousPeriod returns the period compared against [from, to]. Monthly
// periods compare with the preceding calendar month, everything else with
// the same number of days right before from.
func PreviousPeriod(kind Kind, from, to time.Time) (time.Time, time.Time) {
	if kind == Monthly {
		y, m, _ := from.Date()
		first := time.Date(y, m-1, 1, 0, 0, 0, 0, from.Location())
		return first, first.AddDate(0, 1, -1)
	}
	n := dayNumber(to) - dayNumber(from) + 1
	return from.AddDate(0, 0, -n), from.AddDate(0, 0, -1)
}
