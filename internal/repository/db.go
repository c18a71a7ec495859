package repository

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chore-tracker/internal/model"
)

var (
	// ErrConflict is returned when an optimistic update lost the race.
	ErrConflict = errors.New("record was changed concurrently")
	// ErrNotFound wraps gorm.ErrRecordNotFound for callers outside this package.
	ErrNotFound = gorm.ErrRecordNotFound
)

// busyTimeout lets concurrent writers wait for the lock instead of failing.
const busyTimeout = 5 * time.Second

// models lists every table the chore tracker owns.
var models = []any{
	&model.Family{},
	&model.Member{},
	&model.Category{},
	&model.Task{},
	&model.Completion{},
}

// NewDB opens the SQLite database at dsn and brings the schema up to date.
func NewDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "chore_tracker.db"
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newLogger()})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())).Error; err != nil {
		return nil, fmt.Errorf("configure db: %w", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

// newLogger reports slow queries and errors on stdout, like the rest of the app.
func newLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "[db] ", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// ensureDirForSQLite creates the directory of a file-backed database.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
