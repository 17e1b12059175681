package db

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"walkin-queue-backend/config"
	"walkin-queue-backend/internal/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestInit_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "queue.db"),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}

	gdb, err := Init(cfg, quietLogger())
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	for _, table := range []any{&model.Salon{}, &model.Service{}, &model.QueueEntry{}, &model.QueueHistory{}, &model.SalonState{}} {
		assert.True(t, gdb.Migrator().HasTable(table), "%T", table)
	}
	assert.True(t, gdb.Migrator().HasIndex(&model.QueueEntry{}, "idx_entries_salon_order"))

	// Migrating twice is harmless.
	assert.NoError(t, Migrate(gdb, quietLogger()))
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"}, quietLogger())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"ERROR":  logger.Error,
		"info":   logger.Info,
		"warn":   logger.Warn,
		"":       logger.Warn,
	}
	for in, want := range tests {
		assert.Equal(t, want, logLevel(in), in)
	}
}
