package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chore-tracker/internal/calendar"
	"chore-tracker/internal/config"
	"chore-tracker/internal/recurrence"
	"chore-tracker/internal/repository"
	"chore-tracker/internal/service"
)

func seedFamily(t *testing.T) (string, uint) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chores.db")
	db, err := repository.NewDB(path)
	require.NoError(t, err)
	defer func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
	}()

	members := repository.NewMemberRepository(db)
	parent, err := members.UpsertFromTelegram(ctx, 1, "Anna", "", "", "UTC")
	require.NoError(t, err)

	chores := service.NewChoreService(repository.NewTaskRepository(db), repository.NewCategoryRepository(db), repository.NewCompletionRepository(db))
	task, err := chores.CreateChore(ctx, parent, service.ChoreInput{
		Title:   "Feed the cat",
		Pattern: recurrence.Daily{Interval: 1},
	}, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = chores.Complete(ctx, parent, task.ID, time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	return path, parent.FamilyID
}

func TestRunReport(t *testing.T) {
	ctx := context.Background()
	path, familyID := seedFamily(t)
	cfg := config.Config{DatabaseURL: path, WeekStart: "mon"}

	rollup, name, err := runReport(ctx, cfg, &reportOptions{familyID: familyID, kind: "weekly", date: "2025-03-12"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Anna's family", name)
	assert.Equal(t, "2025-03-10", rollup.PeriodStart)
	assert.Equal(t, "2025-03-16", rollup.PeriodEnd)
	assert.Equal(t, 7, rollup.TotalTasks)
	assert.Equal(t, 1, rollup.CompletedTasks)
	assert.Equal(t, 14, rollup.CompletionPercentage)

	rollup, _, err = runReport(ctx, cfg, &reportOptions{familyID: familyID, kind: "weekly", from: "2025-03-10", to: "2025-03-11"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, rollup.TotalTasks)
	assert.Equal(t, 50, rollup.CompletionPercentage)

	_, _, err = runReport(ctx, cfg, &reportOptions{familyID: familyID, kind: "weekly", from: "2025-03-11", to: "2025-03-10"}, time.Now())
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, _, err = runReport(ctx, cfg, &reportOptions{familyID: familyID, kind: "yearly"}, time.Now())
	assert.ErrorIs(t, err, calendar.ErrUnknownKind)

	_, _, err = runReport(ctx, cfg, &reportOptions{familyID: familyID + 1, kind: "weekly"}, time.Now())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReportCommand_YAML(t *testing.T) {
	path, _ := seedFamily(t)
	t.Setenv("DATABASE_URL", path)

	out, err := execute(t, "report", "--family", "1", "--kind", "monthly", "--date", "2025-03-12", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: monthly")
	assert.Contains(t, out, "period_start:")
	assert.Contains(t, out, "2025-03-31")
	assert.Contains(t, out, "perfect_days_count: 1")
}
