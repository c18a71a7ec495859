package recurrence

import (
	"bytes"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, p Pattern, start time.Time) string {
	t.Helper()
	rule, err := Encode(p, start, time.UTC)
	require.NoError(t, err)
	return rule
}

func TestOccursOn_WeekdayMapping(t *testing.T) {
	rule := mustEncode(t, Weekly{Interval: 1, Days: []time.Weekday{time.Monday, time.Wednesday, time.Friday}}, date(2024, time.January, 1))

	for _, d := range []int{1, 3, 5} {
		assert.True(t, OccursOn(&rule, date(2024, time.January, d), EvalOptions{}), "2024-01-%02d", d)
	}
	for _, d := range []int{2, 4, 6, 7} {
		assert.False(t, OccursOn(&rule, date(2024, time.January, d), EvalOptions{}), "2024-01-%02d", d)
	}
}

func TestOccursOn_CreatedAtBoundary(t *testing.T) {
	createdAt := time.Date(2025, time.January, 1, 15, 30, 0, 0, time.UTC)
	rule := mustEncode(t, Daily{Interval: 1}, createdAt)

	assert.True(t, OccursOn(&rule, createdAt, EvalOptions{CreatedAt: createdAt}))
	assert.False(t, OccursOn(&rule, createdAt.AddDate(0, 0, -1), EvalOptions{CreatedAt: createdAt}))
}

func TestOccursOn_CreatedAtBoundaryInFamilyZone(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	// 22:00 UTC is already the next calendar day in Moscow.
	createdAt := time.Date(2025, time.January, 1, 22, 0, 0, 0, time.UTC)
	rule, err := Encode(Daily{Interval: 1}, createdAt, moscow)
	require.NoError(t, err)
	assert.Contains(t, rule, "DTSTART:20250102T000000Z")

	opts := EvalOptions{Location: moscow, CreatedAt: createdAt}
	assert.True(t, OccursOn(&rule, createdAt, opts))
	assert.False(t, OccursOn(&rule, createdAt.AddDate(0, 0, -1), opts))
}

func TestOccursOn_NilRule(t *testing.T) {
	assert.False(t, OccursOn(nil, date(2024, time.January, 1), EvalOptions{}))
}

func TestOccursOn_MalformedIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})

	rule := "FREQ=SOMETIMES"
	assert.False(t, OccursOn(&rule, date(2024, time.January, 1), EvalOptions{TaskID: 42}))
	assert.Contains(t, buf.String(), "task=42")
	assert.Contains(t, buf.String(), "FREQ=SOMETIMES")
}

func TestEvaluate_DistinguishesNoOccurrenceFromUnparseable(t *testing.T) {
	rule := mustEncode(t, Daily{Interval: 2}, date(2024, time.January, 1))

	ok, err := Evaluate(rule, date(2024, time.January, 2), EvalOptions{})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Evaluate(rule, date(2024, time.January, 3), EvalOptions{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate("not a rule", date(2024, time.January, 3), EvalOptions{})
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrMalformedRule))
}

func TestEvaluate_AnchorsOnCreatedAtWithoutStart(t *testing.T) {
	rule := "RRULE:FREQ=DAILY;INTERVAL=1"
	createdAt := date(2024, time.February, 10)

	ok, err := Evaluate(rule, date(2024, time.February, 9), EvalOptions{CreatedAt: createdAt})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Evaluate(rule, date(2024, time.February, 10), EvalOptions{CreatedAt: createdAt})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Evaluate(rule, date(2024, time.February, 10), EvalOptions{})
	assert.ErrorIs(t, err, ErrMalformedRule)
}

func TestEvaluate_ExplicitLocation(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	rule := mustEncode(t, Daily{Interval: 1}, date(2024, time.January, 1))
	opts := EvalOptions{Location: zone}

	ok, err := Evaluate(rule, time.Date(2024, time.January, 1, 23, 0, 0, 0, zone), opts)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(rule, time.Date(2023, time.December, 31, 23, 0, 0, 0, zone), opts)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_MonthDayClampsToShortMonths(t *testing.T) {
	rule := mustEncode(t, Monthly{Interval: 1, MonthDay: 31}, date(2024, time.January, 1))

	for _, tc := range []struct {
		day  time.Time
		want bool
	}{
		{date(2024, time.January, 31), true},
		{date(2024, time.February, 28), false},
		{date(2024, time.February, 29), true},
		{date(2024, time.April, 30), true},
		{date(2024, time.April, 29), false},
		{date(2025, time.February, 28), true},
	} {
		ok, err := Evaluate(rule, tc.day, EvalOptions{})
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, tc.day.Format("2006-01-02"))
	}
}

func TestNextOccurrences(t *testing.T) {
	rule := mustEncode(t, Monthly{Interval: 1, MonthDay: 31}, date(2024, time.January, 1))

	got, err := NextOccurrences(rule, 4, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	}, got)
}

func TestNextOccurrences_StartsAtOrAfterStart(t *testing.T) {
	rule := mustEncode(t, Weekly{Interval: 2, Days: []time.Weekday{time.Monday, time.Thursday}}, date(2024, time.January, 2))

	got, err := NextOccurrences(rule, 3, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.January, 4),
		date(2024, time.January, 15),
		date(2024, time.January, 18),
	}, got)
}

func TestNextOccurrences_Bounds(t *testing.T) {
	rule := mustEncode(t, Daily{Interval: 1}, date(2024, time.January, 1))

	got, err := NextOccurrences(rule, 0, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NextOccurrences("FREQ=DAILY;BYHOUR=x", 3, time.UTC)
	assert.ErrorIs(t, err, ErrMalformedRule)
}

func TestNextAfter(t *testing.T) {
	rule := mustEncode(t, Weekly{Interval: 1, Days: []time.Weekday{time.Monday, time.Wednesday, time.Friday}}, date(2024, time.January, 1))

	got, err := NextAfter(rule, time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC), 3, EvalOptions{})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.January, 5),
		date(2024, time.January, 8),
		date(2024, time.January, 10),
	}, got)
}

func TestDueOn(t *testing.T) {
	due := time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC)
	assert.True(t, DueOn(&due, date(2025, time.March, 10), time.UTC))
	assert.False(t, DueOn(&due, date(2025, time.March, 11), time.UTC))
	assert.False(t, DueOn(nil, date(2025, time.March, 10), time.UTC))
}
