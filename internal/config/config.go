package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"chore-tracker/internal/recurrence"
)

// Config keeps runtime settings for the bot and the CLI.
type Config struct {
	TelegramToken    string `mapstructure:"telegram_token"`
	DatabaseURL      string `mapstructure:"database_url"`
	Timezone         string `mapstructure:"timezone"`
	DailyAgendaTime  string `mapstructure:"daily_agenda_time"`
	WeeklyReportDay  string `mapstructure:"weekly_report_day"`
	WeeklyReportTime string `mapstructure:"weekly_report_time"`
	WeekStart        string `mapstructure:"week_start"`
}

var defaults = map[string]string{
	"telegram_token":     "",
	"database_url":       "chore_tracker.db",
	"timezone":           "UTC",
	"daily_agenda_time":  "07:30",
	"weekly_report_day":  "sun",
	"weekly_report_time": "19:00",
	"week_start":         "mon",
}

// Load reads configuration from environment variables and, when configFile
// is not empty, from that file. Environment variables win.
func Load(configFile string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaults["database_url"]
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	if _, err := cfg.WeekStartDay(); err != nil {
		return cfg, err
	}
	if _, err := cfg.ReportDay(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RequireToken fails when the bot cannot start.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// Location is the default zone for new families and cron jobs.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) WeekStartDay() (time.Weekday, error) {
	return singleWeekday("WEEK_START", c.WeekStart)
}

func (c Config) ReportDay() (time.Weekday, error) {
	return singleWeekday("WEEKLY_REPORT_DAY", c.WeeklyReportDay)
}

func singleWeekday(name, raw string) (time.Weekday, error) {
	days, err := recurrence.ParseWeekdays(raw)
	if err != nil || len(days) != 1 {
		return 0, fmt.Errorf("invalid %s %q, expected one weekday", name, raw)
	}
	return days[0], nil
}
