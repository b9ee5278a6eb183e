package testutil

import (
	"fmt"
	"testing"
	"time"

	"opname-backend/internal/config"
	"opname-backend/internal/database"
	"opname-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "opname-test-secret-0123456789abcdef"

// Config returns a valid configuration for tests.
func Config() *config.Config {
	return &config.Config{
		HTTPPort:      "0",
		JWTSecret:     JWTSecret,
		CORSOrigins:   "*",
		Environment:   "test",
		LogLevel:      "error",
		TokenTTLHours: 1,
	}
}

// SetupTestDB opens a private in-memory SQLite database, runs the production
// migration and installs it as database.DB for the duration of the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// one connection, otherwise each pooled connection sees its own empty database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		sqlDB.Close()
	})
	return db
}

// SeedUser creates a user with a throwaway password hash.
func SeedUser(t *testing.T, db *gorm.DB, name string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@test.local", name),
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedItem creates a catalog item in project at storage.
func SeedItem(t *testing.T, db *gorm.DB, project, part, storage string) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		No:             1,
		Part:           part,
		StdPack:        10,
		Project:        project,
		PartName:       "Part " + part,
		PartNumber:     "PN-" + part,
		Storage:        storage,
		Type:           "local",
		InitialQtyStd:  5,
		InitialQtySisa: 1,
		QtyStd:         5,
		QtySisa:        1,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed item: %v", err)
	}
	return item
}

// SeedPeriod creates a period starting on start and lasting a week.
func SeedPeriod(t *testing.T, db *gorm.DB, name string, typ models.PeriodType, status models.PeriodStatus, start time.Time) *models.StockTakingPeriod {
	t.Helper()
	p := &models.StockTakingPeriod{
		Name:      name,
		Type:      typ,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 6),
		Status:    status,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed period: %v", err)
	}
	return p
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func IntPtr(v int) *int { return &v }

func StrPtr(v string) *string { return &v }
