package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Describe renders p as English text, e.g. "Every 2 weeks on Mon, Wed".
func Describe(p Pattern) string {
	switch v := p.(type) {
	case Daily:
		return every(v.Interval, "day", "days")
	case Custom:
		return every(v.Interval, "day", "days")
	case Weekly:
		text := every(v.Interval, "week", "weeks")
		if len(v.Days) == 0 {
			return text
		}
		days := append([]time.Weekday(nil), v.Days...)
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		names := make([]string, 0, len(days))
		for _, day := range days {
			names = append(names, day.String()[:3])
		}
		return text + " on " + strings.Join(names, ", ")
	case Monthly:
		return every(v.Interval, "month", "months") + " on the " + Ordinal(v.MonthDay)
	}
	return "Does not repeat"
}

func every(interval int, one, many string) string {
	if interval == 1 {
		return "Every " + one
	}
	return fmt.Sprintf("Every %d %s", interval, many)
}

// Ordinal returns n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 22nd.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
