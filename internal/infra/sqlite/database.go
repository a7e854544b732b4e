// Package sqlite is the gorm-backed local storage used for development and the CLI.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/finflow/internal/entitlement"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open creates the database file if needed, tunes the connection and migrates the schema.
func Open(path string, verbose bool) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("Open: create db dir: %w", err)
	}

	gormLogger := logger.Default
	if !verbose {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("Open: open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("Open: get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")
	_, _ = sqlDB.Exec("PRAGMA busy_timeout = 5000;")

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Migrate creates or updates every table and seeds the default usage limits.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&transactionModel{},
		&budgetModel{},
		&userModel{},
		&appConfigModel{},
		&feedbackModel{},
	); err != nil {
		return fmt.Errorf("Migrate: auto migrate: %w", err)
	}

	defaults := entitlement.DefaultLimits()
	seed := []appConfigModel{
		{Key: entitlement.KeyImageLimit, Value: fmt.Sprint(defaults.Image)},
		{Key: entitlement.KeyAudioLimit, Value: fmt.Sprint(defaults.Audio)},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("Migrate: seeding app_configs: %w", err)
	}
	return nil
}
