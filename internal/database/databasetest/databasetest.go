// Package databasetest provides an in-memory database for tests.
package databasetest

import (
	"testing"

	"github.com/yukikurage/projecthub/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database closed on test cleanup.
// A single connection is used so every query sees the same in-memory database.
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() {
		sqlDB.Close()
	})

	if err := db.AutoMigrate(models.All()...); err != nil {
		tb.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}
