package testutil

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"

	"chore-tracker/internal/repository"
)

// NewTestDB opens a migrated in-memory database private to the test.
// It is closed automatically when the test completes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("opening test db pool: %v", err)
	}
	// One connection keeps the shared in-memory database free of lock errors.
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})

	return db
}
