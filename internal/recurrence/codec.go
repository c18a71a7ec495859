package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// clampFrom is the first month day that not every month has.
const clampFrom = 28

// customMarkerHour is the BYHOUR value that marks a Custom daily rule.
const customMarkerHour = 0

// ruleWeekdays is indexed by the rule encoding: 0=Monday .. 6=Sunday.
var ruleWeekdays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// Rule is a decoded rule string.
type Rule struct {
	Pattern Pattern
	// Start is the first calendar date of the series at UTC midnight.
	// Zero when the rule string carries no DTSTART.
	Start time.Time

	raw string
}

// MalformedRuleError describes a rule string that could not be decoded.
type MalformedRuleError struct {
	Rule   string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed rule %q: %s", e.Rule, e.Reason)
}

func (e *MalformedRuleError) Unwrap() error {
	return ErrMalformedRule
}

func malformed(rule, format string, args ...any) error {
	return &MalformedRuleError{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

func encodeWeekday(day time.Weekday) int {
	if day == time.Sunday {
		return 6
	}
	return int(day) - 1
}

func decodeWeekday(encoded int) time.Weekday {
	if encoded == 6 {
		return time.Sunday
	}
	return time.Weekday(encoded + 1)
}

// Encode serialises p with the calendar date of start in loc as DTSTART.
// loc must be the zone the rule is later evaluated in; nil means UTC.
// The same pattern and date always produce the same string.
func Encode(p Pattern, start time.Time, loc *time.Location) (string, error) {
	var dtstart time.Time
	if !start.IsZero() {
		if loc == nil {
			loc = time.UTC
		}
		y, m, d := start.In(loc).Date()
		dtstart = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	opt, err := buildOptions(p, dtstart)
	if err != nil {
		return "", err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return r.String(), nil
}

func buildOptions(p Pattern, dtstart time.Time) (rrule.ROption, error) {
	if p == nil {
		return rrule.ROption{}, fmt.Errorf("%w: pattern is required", ErrInvalidPattern)
	}
	if err := p.Validate(); err != nil {
		return rrule.ROption{}, err
	}

	opt := rrule.ROption{Dtstart: dtstart}
	switch v := p.(type) {
	case Daily:
		opt.Freq = rrule.DAILY
		opt.Interval = v.Interval
	case Custom:
		// BYHOUR=0 matches the midnight start of every series, so it only
		// tells Custom apart from Daily.
		opt.Freq = rrule.DAILY
		opt.Interval = v.Interval
		opt.Byhour = []int{customMarkerHour}
	case Weekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = v.Interval
		encoded := make([]int, 0, len(v.Days))
		for _, day := range v.Days {
			encoded = append(encoded, encodeWeekday(day))
		}
		sort.Ints(encoded)
		for _, n := range encoded {
			opt.Byweekday = append(opt.Byweekday, ruleWeekdays[n])
		}
	case Monthly:
		opt.Freq = rrule.MONTHLY
		opt.Interval = v.Interval
		if v.MonthDay <= clampFrom {
			opt.Bymonthday = []int{v.MonthDay}
			break
		}
		// Last existing day out of 28..MonthDay.
		for day := clampFrom; day <= v.MonthDay; day++ {
			opt.Bymonthday = append(opt.Bymonthday, day)
		}
		opt.Bysetpos = []int{-1}
	default:
		return rrule.ROption{}, fmt.Errorf("%w: unsupported pattern %T", ErrInvalidPattern, p)
	}
	return opt, nil
}

// Decode parses a rule string produced by Encode. Any failure is a
// *MalformedRuleError.
func Decode(rule string) (Rule, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return Rule{}, malformed(rule, "empty rule")
	}

	opt, err := rrule.StrToROption(trimmed)
	if err != nil {
		return Rule{}, malformed(rule, "%v", err)
	}

	p, err := patternFrom(rule, opt)
	if err != nil {
		return Rule{}, err
	}
	if err := p.Validate(); err != nil {
		return Rule{}, malformed(rule, "%v", err)
	}

	start := opt.Dtstart
	if !start.IsZero() {
		y, m, d := start.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return Rule{Pattern: p, Start: start, raw: rule}, nil
}

// Parse is Decode without the reason: nil for anything malformed.
func Parse(rule string) Pattern {
	r, err := Decode(rule)
	if err != nil {
		return nil
	}
	return r.Pattern
}

func patternFrom(rule string, opt *rrule.ROption) (Pattern, error) {
	if opt.Count != 0 || !opt.Until.IsZero() {
		return nil, malformed(rule, "COUNT and UNTIL are not supported")
	}
	if len(opt.Bymonth) > 0 || len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 ||
		len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 {
		return nil, malformed(rule, "unsupported BY* part")
	}
	custom := len(opt.Byhour) == 1 && opt.Byhour[0] == customMarkerHour
	if len(opt.Byhour) > 0 && (!custom || opt.Freq != rrule.DAILY) {
		return nil, malformed(rule, "unsupported BYHOUR")
	}

	interval := opt.Interval
	if interval == 0 {
		interval = 1
	}

	switch opt.Freq {
	case rrule.DAILY:
		if len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 0 || len(opt.Bysetpos) > 0 {
			return nil, malformed(rule, "daily rule with day selectors")
		}
		if custom {
			return Custom{Interval: interval}, nil
		}
		return Daily{Interval: interval}, nil

	case rrule.WEEKLY:
		if len(opt.Bymonthday) > 0 || len(opt.Bysetpos) > 0 {
			return nil, malformed(rule, "weekly rule with month selectors")
		}
		var days []time.Weekday
		for _, wd := range opt.Byweekday {
			if wd != ruleWeekdays[wd.Day()] {
				return nil, malformed(rule, "positional weekday %s", wd.String())
			}
			days = append(days, decodeWeekday(wd.Day()))
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		return Weekly{Interval: interval, Days: days}, nil

	case rrule.MONTHLY:
		if len(opt.Byweekday) > 0 {
			return nil, malformed(rule, "monthly rule with weekday selectors")
		}
		day, err := monthDayFrom(rule, opt)
		if err != nil {
			return nil, err
		}
		return Monthly{Interval: interval, MonthDay: day}, nil
	}

	return nil, malformed(rule, "unsupported frequency %v", opt.Freq)
}

func monthDayFrom(rule string, opt *rrule.ROption) (int, error) {
	switch {
	case len(opt.Bysetpos) == 0 && len(opt.Bymonthday) == 1:
		return opt.Bymonthday[0], nil
	case len(opt.Bysetpos) == 0 && len(opt.Bymonthday) == 0:
		if opt.Dtstart.IsZero() {
			return 0, malformed(rule, "monthly rule without month day or start")
		}
		return opt.Dtstart.Day(), nil
	case len(opt.Bysetpos) == 1 && opt.Bysetpos[0] == -1 && len(opt.Bymonthday) > 1:
		for i, day := range opt.Bymonthday {
			if day != clampFrom+i {
				return 0, malformed(rule, "unsupported month day set")
			}
		}
		return opt.Bymonthday[len(opt.Bymonthday)-1], nil
	}
	return 0, malformed(rule, "unsupported month day set")
}
