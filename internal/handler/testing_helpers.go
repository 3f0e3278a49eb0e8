package handler

import (
	"testing"

	"vitalstore/internal/config"
	"vitalstore/internal/models"
	"vitalstore/internal/services"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing (pure Go, no CGO)
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.MetricSample{},
		&models.DailyZone{},
		&models.SleepSummary{},
	)
	require.NoError(t, err)

	for _, table := range []string{models.TableRollup1m, models.TableRollup1h, models.TableRollup1d} {
		require.NoError(t, db.Table(table).AutoMigrate(&models.RollupSample{}))
	}

	return db
}

// setupTestServer creates a test server with minimal dependencies
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	db := setupTestDB(t)
	mockConfig := &config.MockConfig{}

	return NewServer(
		db,
		services.NewQueryService(db),
		services.NewAdherenceService(db, mockConfig),
	)
}
