package recurrence

import (
	"errors"
	"log"
	"time"

	"github.com/teambition/rrule-go"
)

// EvalOptions sets the day boundaries used to evaluate a rule.
type EvalOptions struct {
	// Location defines where a calendar day starts and ends. Nil means UTC.
	Location *time.Location
	// CreatedAt anchors rules that carry no start date.
	CreatedAt time.Time
	// TaskID is only used for logging.
	TaskID uint
}

func (o EvalOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// series builds the rule iterator with its start moved to local midnight
// of the same calendar date.
func (r Rule) series(opts EvalOptions) (*rrule.RRule, time.Time, error) {
	loc := opts.location()
	var start time.Time
	switch {
	case !r.Start.IsZero():
		y, m, d := r.Start.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	case !opts.CreatedAt.IsZero():
		start = StartOfDay(opts.CreatedAt, loc)
	default:
		return nil, time.Time{}, malformed(r.raw, "no start date")
	}

	opt, err := buildOptions(r.Pattern, start)
	if err != nil {
		return nil, time.Time{}, malformed(r.raw, "%v", err)
	}
	set, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, time.Time{}, malformed(r.raw, "%v", err)
	}
	return set, start, nil
}

// OccursOn reports whether any instance of r falls on day's calendar date.
func (r Rule) OccursOn(day time.Time, opts EvalOptions) (bool, error) {
	hits, err := r.Between(day, day, opts)
	if err != nil {
		return false, err
	}
	return len(hits) > 0, nil
}

// Between returns the occurrences from the start of from's day to the end
// of to's day, inclusive.
func (r Rule) Between(from, to time.Time, opts EvalOptions) ([]time.Time, error) {
	set, _, err := r.series(opts)
	if err != nil {
		return nil, err
	}
	loc := opts.location()
	return set.Between(StartOfDay(from, loc), endOfDay(to, loc), true), nil
}

// Evaluate decodes rule and tests day against it. A decode failure is
// reported as a *MalformedRuleError, distinct from a plain false.
func Evaluate(rule string, day time.Time, opts EvalOptions) (bool, error) {
	r, err := Decode(rule)
	if err != nil {
		return false, err
	}
	return r.OccursOn(day, opts)
}

// OccursOn is the fail-closed form of Evaluate: a nil or malformed rule is
// never due. Malformed rules are logged.
func OccursOn(rule *string, day time.Time, opts EvalOptions) bool {
	if rule == nil {
		return false
	}
	ok, err := Evaluate(*rule, day, opts)
	if err != nil {
		LogMalformed(log.Default(), err, opts.TaskID)
		return false
	}
	return ok
}

// NextOccurrences lists up to count dates from the rule's start date on.
func NextOccurrences(rule string, count int, loc *time.Location) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}
	r, err := Decode(rule)
	if err != nil {
		return nil, err
	}
	set, start, err := r.series(EvalOptions{Location: loc})
	if err != nil {
		return nil, err
	}
	return take(set, start, true, count), nil
}

// NextAfter lists up to count dates strictly after after's calendar day.
func NextAfter(rule string, after time.Time, count int, opts EvalOptions) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}
	r, err := Decode(rule)
	if err != nil {
		return nil, err
	}
	set, _, err := r.series(opts)
	if err != nil {
		return nil, err
	}
	return take(set, endOfDay(after, opts.location()), false, count), nil
}

func take(set *rrule.RRule, from time.Time, inc bool, count int) []time.Time {
	out := make([]time.Time, 0, count)
	cur := from
	for len(out) < count {
		next := set.After(cur, inc)
		if next.IsZero() {
			break
		}
		out = append(out, next)
		cur, inc = next, false
	}
	return out
}

// DueOn reports whether a one-off due date falls on day's calendar date.
func DueOn(due *time.Time, day time.Time, loc *time.Location) bool {
	if due == nil {
		return false
	}
	return StartOfDay(*due, loc).Equal(StartOfDay(day, loc))
}

// LogMalformed writes a warning for a rule that could not be evaluated.
func LogMalformed(logger *log.Logger, err error, taskID uint) {
	if logger == nil {
		logger = log.Default()
	}
	var mre *MalformedRuleError
	if !errors.As(err, &mre) {
		logger.Printf("[warn] evaluate rule task=%d: %v", taskID, err)
		return
	}
	if taskID != 0 {
		logger.Printf("[warn] malformed rule task=%d rule=%q: %s", taskID, mre.Rule, mre.Reason)
		return
	}
	logger.Printf("[warn] malformed rule rule=%q: %s", mre.Rule, mre.Reason)
}
