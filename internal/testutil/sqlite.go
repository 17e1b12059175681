// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"walkin-queue-backend/internal/db"
	"walkin-queue-backend/internal/model"
)

// Logger returns a logrus logger that writes nowhere.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// OpenSQLite opens a private in-memory database with the full schema.
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb, Logger()))
	return gdb
}

// Menu is the service menu every test salon gets: Haircut 20, Shave 10, Facial 30 minutes.
func Menu() []model.Service {
	return []model.Service{
		{Name: "Haircut", DurationMinutes: 20, Price: decimal.RequireFromString("150.00")},
		{Name: "Shave", DurationMinutes: 10, Price: decimal.RequireFromString("80.00")},
		{Name: "Facial", DurationMinutes: 30, Price: decimal.RequireFromString("450.00")},
	}
}

// SeedSalons inserts one salon per id, each with Menu().
func SeedSalons(t *testing.T, gdb *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		salon := model.Salon{ID: id, Name: "Salon " + id, Menu: Menu()}
		require.NoError(t, gdb.WithContext(context.Background()).Create(&salon).Error)
	}
}
