package config

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-orders/models"
	"github.com/yeremiapane/restaurant-orders/utils"
)

// InitDB opens the configured database. Unique violations are translated to
// gorm.ErrDuplicatedKey so the store can report table conflicts.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.GinMode == "release" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers
		sqlDB.SetMaxOpenConns(1)
	}

	utils.InfoLogger.Printf("Database connected (%s)", cfg.DBDriver)
	return db, nil
}

// AutoMigrate creates or updates every table the order core owns.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Order{},
		&models.LineItem{},
		&models.KOTBatch{},
		&models.KOTBatchItem{},
		&models.Invoice{},
		&models.StatusChange{},
		&models.OutboxEvent{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
