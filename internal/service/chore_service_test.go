package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chore-tracker/internal/model"
	"chore-tracker/internal/recurrence"
	"chore-tracker/internal/repository"
	"chore-tracker/internal/testutil"
)

type testEnv struct {
	members *repository.MemberRepository
	chores  *ChoreService
	reviews *ReviewService
	reports *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	return &testEnv{
		members: repository.NewMemberRepository(db),
		chores:  NewChoreService(taskRepo, categoryRepo, completionRepo),
		reviews: NewReviewService(completionRepo),
		reports: NewReportService(taskRepo, completionRepo, categoryRepo, time.Monday),
	}
}

// family creates a parent and a child who joined the parent's family.
func (e *testEnv) family(t *testing.T) (*model.Member, *model.Member) {
	t.Helper()
	ctx := context.Background()
	parent, err := e.members.UpsertFromTelegram(ctx, 1, "Anna", "", "", "")
	require.NoError(t, err)
	child, err := e.members.UpsertFromTelegram(ctx, 2, "Tom", "", "", "")
	require.NoError(t, err)
	family, err := e.members.FindFamily(ctx, parent.FamilyID)
	require.NoError(t, err)
	_, err = e.members.JoinFamily(ctx, child, family.InviteCode)
	require.NoError(t, err)
	child, err = e.members.FindByTelegramID(ctx, 2)
	require.NoError(t, err)
	return parent, child
}

func TestCreateChore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, child := env.family(t)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	task, err := env.chores.CreateChore(ctx, parent, ChoreInput{
		Title:    "  Water plants ",
		Category: "Garden",
		Pattern:  recurrence.Weekly{Interval: 2, Days: []time.Weekday{time.Monday, time.Wednesday}},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "Water plants", task.Title)
	assert.True(t, task.IsRecurring)
	require.NotNil(t, task.RRule)
	assert.Equal(t, "Every 2 weeks on Mon, Wed", recurrence.Describe(recurrence.Parse(*task.RRule)))
	require.NotNil(t, task.CategoryID)

	_, err = env.chores.CreateChore(ctx, parent, ChoreInput{Title: "Bad", Pattern: recurrence.Monthly{Interval: 1, MonthDay: 40}}, now)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, recurrence.ErrInvalidPattern)

	_, err = env.chores.CreateChore(ctx, parent, ChoreInput{Title: "No date"}, now)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.chores.CreateChore(ctx, parent, ChoreInput{Title: ""}, now)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.chores.CreateChore(ctx, child, ChoreInput{Title: "Sneaky", DueDate: &now}, now)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateChore_StartsOnDueDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, _ := env.family(t)
	due := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)

	task, err := env.chores.CreateChore(ctx, parent, ChoreInput{
		Title:   "Pay allowance",
		DueDate: &due,
		Pattern: recurrence.Monthly{Interval: 1, MonthDay: 3},
	}, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	dates, err := recurrence.NextOccurrences(*task.RRule, 2, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{due, due.AddDate(0, 1, 0)}, dates)
}

func TestCreateChore_StartsOnLocalDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, _ := env.family(t)
	moscow := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2025, time.January, 1, 22, 0, 0, 0, time.UTC)

	task, err := env.chores.CreateChore(ctx, parent, ChoreInput{
		Title:    "Feed cat",
		Pattern:  recurrence.Daily{Interval: 1},
		Location: moscow,
	}, now)
	require.NoError(t, err)
	assert.Contains(t, *task.RRule, "DTSTART:20250102T000000Z")

	opts := recurrence.EvalOptions{Location: moscow, CreatedAt: now}
	assert.True(t, recurrence.OccursOn(task.RRule, now, opts))
	assert.False(t, recurrence.OccursOn(task.RRule, now.AddDate(0, 0, -1), opts))
}

func TestComplete_StatusDependsOnRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, child := env.family(t)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	task, err := env.chores.CreateChore(ctx, parent, ChoreInput{Title: "Trash", DueDate: &now}, now)
	require.NoError(t, err)

	byParent, err := env.chores.Complete(ctx, parent, task.ID, now)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, byParent.Status)

	byChild, err := env.chores.Complete(ctx, child, task.ID, now)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingReview, byChild.Status)

	_, err = env.chores.Complete(ctx, child, task.ID+100, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteChore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, child := env.family(t)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	task, err := env.chores.CreateChore(ctx, parent, ChoreInput{Title: "Trash", DueDate: &now}, now)
	require.NoError(t, err)

	assert.ErrorIs(t, env.chores.DeleteChore(ctx, child, task.ID), ErrForbidden)
	require.NoError(t, env.chores.DeleteChore(ctx, parent, task.ID))

	_, err = env.chores.GetChore(ctx, parent, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNextDates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, _ := env.family(t)
	created := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	task, err := env.chores.CreateChore(ctx, parent, ChoreInput{
		Title:   "Bins",
		Pattern: recurrence.Weekly{Interval: 1, Days: []time.Weekday{time.Tuesday}},
	}, created)
	require.NoError(t, err)

	now := time.Date(2025, time.January, 14, 15, 0, 0, 0, time.UTC)
	_, dates, err := env.chores.NextDates(ctx, parent, task.ID, now, time.UTC, 2)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 21, 0, 0, 0, 0, time.UTC),
	}, dates)
}

func TestReview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, child := env.family(t)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	task, err := env.chores.CreateChore(ctx, parent, ChoreInput{Title: "Homework", DueDate: &now}, now)
	require.NoError(t, err)
	completion, err := env.chores.Complete(ctx, child, task.ID, now)
	require.NoError(t, err)

	pending, err := env.reviews.Pending(ctx, parent)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = env.reviews.Approve(ctx, child, completion.ID, now)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := env.reviews.Approve(ctx, parent, completion.ID, now)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, approved.Status)

	_, err = env.reviews.Reject(ctx, parent, completion.ID, now)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestReview_ConcurrentReviewersHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, child := env.family(t)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	task, err := env.chores.CreateChore(ctx, parent, ChoreInput{Title: "Homework", DueDate: &now}, now)
	require.NoError(t, err)
	completion, err := env.chores.Complete(ctx, child, task.ID, now)
	require.NoError(t, err)

	const reviewers = 5
	var wg sync.WaitGroup
	errs := make(chan error, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.reviews.Approve(ctx, parent, completion.ID, now)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrConflict):
		default:
			t.Logf("reviewer error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
}
