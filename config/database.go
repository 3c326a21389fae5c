package config

import (
	"fmt"
	"log/slog"

	"food-ordering-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB connects to SQLite with the build-selected driver and migrates the
// schema.
//
// Implicit per-statement transactions are disabled: every multi-row write goes
// through store.UnitOfWork, which owns the only BEGIN/COMMIT.
func OpenDB(cfg Config, log *slog.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.GinMode == "debug" && cfg.LogLevel == "debug" {
		level = logger.Info
	}

	db, err := gorm.Open(openDialector(cfg.DBPath), &gorm.Config{
		Logger:                 logger.Default.LogMode(level),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Dish{},
		&models.OrderItem{},
		&models.Order{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.Info("database connected and migrated", "path", cfg.DBPath, "driver", DriverName)
	return db, nil
}

// CloseDB releases the underlying connection pool
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
