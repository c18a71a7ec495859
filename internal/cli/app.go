package cli

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"chore-tracker/internal/config"
	"chore-tracker/internal/repository"
	"chore-tracker/internal/service"
)

// app wires repositories and services over one database.
type app struct {
	cfg         config.Config
	db          *gorm.DB
	members     *repository.MemberRepository
	categorySvc *service.CategoryService
	choreSvc    *service.ChoreService
	reviewSvc   *service.ReviewService
	reportSvc   *service.ReportService
}

func newApp(cfg config.Config) (*app, error) {
	weekStart, err := cfg.WeekStartDay()
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	memberRepo := repository.NewMemberRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	return &app{
		cfg:         cfg,
		db:          db,
		members:     memberRepo,
		categorySvc: service.NewCategoryService(categoryRepo),
		choreSvc:    service.NewChoreService(taskRepo, categoryRepo, completionRepo),
		reviewSvc:   service.NewReviewService(completionRepo),
		reportSvc:   service.NewReportService(taskRepo, completionRepo, categoryRepo, weekStart),
	}, nil
}

func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("[warn] close db: %v", err)
	}
}
