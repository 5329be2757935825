// Package testsupport provides an in-memory database for package tests.
package testsupport

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"repairhub-server/config"
	"repairhub-server/database"
)

// NewDB returns a migrated and seeded in-memory sqlite database that lives
// for the duration of the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", URL: dsn}, logger.Silent)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := database.Seed(db, nil); err != nil {
		t.Fatalf("seed test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
