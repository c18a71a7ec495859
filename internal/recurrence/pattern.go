package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrInvalidPattern is returned when a pattern violates its invariants.
	ErrInvalidPattern = errors.New("invalid recurrence pattern")
	// ErrMalformedRule is returned when an encoded rule cannot be decoded.
	ErrMalformedRule = errors.New("malformed recurrence rule")
)

// Frequency names accepted by NewPattern.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyCustom  = "custom"
)

// Pattern is a repeating schedule. The set of implementations is closed:
// Daily, Weekly, Monthly and Custom.
type Pattern interface {
	Validate() error
	Frequency() string
	isPattern()
}

// Daily repeats every Interval days.
type Daily struct {
	Interval int
}

// Weekly repeats every Interval weeks on the selected days.
// An empty Days set means the weekday of the start date.
type Weekly struct {
	Interval int
	Days     []time.Weekday
}

// Monthly repeats every Interval months on MonthDay. Months shorter than
// MonthDay fall on their last day.
type Monthly struct {
	Interval int
	MonthDay int
}

// Custom is evaluated exactly like Daily.
type Custom struct {
	Interval int
}

func (Daily) isPattern()   {}
func (Weekly) isPattern()  {}
func (Monthly) isPattern() {}
func (Custom) isPattern()  {}

func (Daily) Frequency() string   { return FrequencyDaily }
func (Weekly) Frequency() string  { return FrequencyWeekly }
func (Monthly) Frequency() string { return FrequencyMonthly }
func (Custom) Frequency() string  { return FrequencyCustom }

func (d Daily) Validate() error  { return validateInterval(d.Interval) }
func (c Custom) Validate() error { return validateInterval(c.Interval) }

func (w Weekly) Validate() error {
	if err := validateInterval(w.Interval); err != nil {
		return err
	}
	seen := make(map[time.Weekday]bool, len(w.Days))
	for _, day := range w.Days {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidPattern, int(day))
		}
		if seen[day] {
			return fmt.Errorf("%w: weekday %s selected twice", ErrInvalidPattern, day)
		}
		seen[day] = true
	}
	return nil
}

func (m Monthly) Validate() error {
	if err := validateInterval(m.Interval); err != nil {
		return err
	}
	if m.MonthDay < 1 || m.MonthDay > 31 {
		return fmt.Errorf("%w: month day %d out of range [1,31]", ErrInvalidPattern, m.MonthDay)
	}
	return nil
}

func validateInterval(interval int) error {
	if interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", ErrInvalidPattern, interval)
	}
	return nil
}

// NewPattern builds and validates a pattern from loose user input.
func NewPattern(frequency string, interval int, days []time.Weekday, monthDay int) (Pattern, error) {
	var p Pattern
	switch strings.ToLower(strings.TrimSpace(frequency)) {
	case FrequencyDaily:
		p = Daily{Interval: interval}
	case FrequencyWeekly:
		p = Weekly{Interval: interval, Days: days}
	case FrequencyMonthly:
		p = Monthly{Interval: interval, MonthDay: monthDay}
	case FrequencyCustom:
		p = Custom{Interval: interval}
	default:
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidPattern, frequency)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekdays reads a list such as "mon,wed fri" or "1,3,5" (0=Sunday).
// Duplicates are dropped and the result is sorted.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for _, field := range fields {
		day, ok := parseWeekday(field)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidPattern, field)
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

func parseWeekday(field string) (time.Weekday, bool) {
	if len(field) == 1 && field[0] >= '0' && field[0] <= '6' {
		return time.Weekday(field[0] - '0'), true
	}
	if len(field) < 3 {
		return 0, false
	}
	day, ok := weekdayNames[field[:3]]
	return day, ok
}
