package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"waitlist-backend/config"
	"waitlist-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Info("running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database initialization complete")
	return db, nil
}

// Migrate creates or updates the schema for all engine models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Table{},
		&model.QueueEntry{},
		&model.DailyStats{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// SeedTables provisions the physical tables declared in configuration,
// keyed on table number. Capacity and location follow the config; status and
// the occupant link belong to the engine and are never touched here.
func SeedTables(db *gorm.DB, seeds []config.TableSeed) error {
	if len(seeds) == 0 {
		return nil
	}

	tables := make([]model.Table, len(seeds))
	for i, seed := range seeds {
		tables[i] = model.Table{
			TableNumber: seed.Number,
			Capacity:    seed.Capacity,
			Location:    seed.Location,
			Status:      model.TableStatusAvailable,
		}
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"capacity", "location", "updated_at"}),
	}).Create(&tables).Error
	if err != nil {
		return fmt.Errorf("failed to seed tables: %w", err)
	}
	return nil
}
