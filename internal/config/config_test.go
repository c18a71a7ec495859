package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "chore_tracker.db", cfg.DatabaseURL)
	assert.Equal(t, "07:30", cfg.DailyAgendaTime)

	weekStart, err := cfg.WeekStartDay()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, weekStart)

	reportDay, err := cfg.ReportDay()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, reportDay)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "  secret ")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("WEEK_START", "sunday")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.TelegramToken)
	assert.NoError(t, cfg.RequireToken())

	weekStart, err := cfg.WeekStartDay()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, weekStart)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chores.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database_url: data/chores.db\nweekly_report_time: \"20:15\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/chores.db", cfg.DatabaseURL)
	assert.Equal(t, "20:15", cfg.WeeklyReportTime)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("WEEK_START", "mon,tue")
	_, err := Load("")
	assert.Error(t, err)
}

func TestRequireToken(t *testing.T) {
	assert.Error(t, Config{}.RequireToken())
}
