package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"walkin-queue-backend/config"
	"walkin-queue-backend/internal/model"
)

// Init opens the configured database, tunes the pool and runs migrations.
func Init(cfg *config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(db, log); err != nil {
		return nil, err
	}

	log.Info("database initialization complete")
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB, log logrus.FieldLogger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(
		&model.Salon{},
		&model.Service{},
		&model.QueueEntry{},
		&model.QueueHistory{},
		&model.SalonState{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := applyPostgresDDL(db); err != nil {
			log.WithError(err).Warn("failed to apply some postgres DDL, continuing without them")
		}
	}
	return nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres", "postgresql":
		return postgres.Open(cfg.DSN), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// applyPostgresDDL adds constraints gorm tags cannot express.
func applyPostgresDDL(db *gorm.DB) error {
	constraints := map[string]string{
		"queue_entries_phone_digits":   "ALTER TABLE queue_entries ADD CONSTRAINT queue_entries_phone_digits CHECK (phone ~ '^[0-9]{10}$')",
		"queue_entries_duration_valid": "ALTER TABLE queue_entries ADD CONSTRAINT queue_entries_duration_valid CHECK (total_duration_minutes > 0)",
		"queue_histories_done":         "ALTER TABLE queue_histories ADD CONSTRAINT queue_histories_done CHECK (status = 'completed')",
		"services_duration_valid":      "ALTER TABLE services ADD CONSTRAINT services_duration_valid CHECK (duration_minutes > 0)",
	}

	for name, ddl := range constraints {
		var exists int64
		if err := db.Raw("SELECT COUNT(*) FROM pg_constraint WHERE conname = ?", name).Scan(&exists).Error; err != nil {
			return fmt.Errorf("constraint lookup failed on %q: %w", name, err)
		}
		if exists > 0 {
			continue
		}
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
