package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"chore-tracker/internal/bot"
	"chore-tracker/internal/config"
	"chore-tracker/internal/service"
)

const jobTimeout = 30 * time.Second

// NewServeCommand creates the command that runs the bot and its cron jobs.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot with daily agendas and weekly reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.RequireToken(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	reportDay, err := cfg.ReportDay()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	telegramBot, err := bot.New(cfg.TelegramToken, a.members, a.categorySvc, a.choreSvc, a.reviewSvc, a.reportSvc, &cfg)
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(loc)
	agendaID, err := scheduler.ScheduleDaily(cfg.DailyAgendaTime, func() {
		runJob("daily agenda", telegramBot.SendDailyAgendas)
	})
	if err != nil {
		return fmt.Errorf("schedule agenda: %w", err)
	}
	reportID, err := scheduler.ScheduleWeekly(reportDay, cfg.WeeklyReportTime, func() {
		runJob("weekly report", telegramBot.SendWeeklyReports)
	})
	if err != nil {
		return fmt.Errorf("schedule report: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("[info] next agenda at %s, next weekly report at %s",
		scheduler.Next(agendaID).Format(time.RFC3339), scheduler.Next(reportID).Format(time.RFC3339))

	log.Println("[info] chore tracker bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped with error: %w", err)
	}
	log.Println("[info] shutdown complete")
	return nil
}

func runJob(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[warn] %s: %v", name, err)
	}
}
