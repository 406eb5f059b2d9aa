// Package testhelpers provides throwaway backing stores for package tests.
package testhelpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"swipe/interview/internal/models"
)

// SetupTestDB opens a private in-memory SQLite database with the candidates
// table migrated. It is closed when the test ends.
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:candidates-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Candidate{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// DropCandidateTable makes every later repository call fail.
func DropCandidateTable(t testing.TB, db *gorm.DB) {
	t.Helper()
	if err := db.Migrator().DropTable(&models.Candidate{}); err != nil {
		t.Fatalf("drop candidates table: %v", err)
	}
}
