package database

import (
	"fmt"

	"opname-backend/internal/config"
	"opname-backend/internal/logger"
	"opname-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	level := gormlogger.Warn
	if !cfg.IsProduction() && cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		logger.Log.Fatal("could not connect to database", zap.Error(err))
	}

	if err := Migrate(DB); err != nil {
		logger.Log.Fatal("migration failed", zap.Error(err))
	}

	logger.Log.Info("database connected, migration complete")
}

// Migrate creates the schema. It is shared by the server, the importer and
// the tests, so every statement must run on both Postgres and SQLite.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.InventoryItem{},
		&models.StockTakingPeriod{},
		&models.StockOpnameRecord{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// At most one active period per type. The registry checks this before
	// activating; the index catches anything that slips past.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_one_active_per_type
		ON stock_taking_periods (type) WHERE status = 'active'`).Error; err != nil {
		return fmt.Errorf("active period index: %w", err)
	}

	return nil
}
