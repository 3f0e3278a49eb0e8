package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitalstore/internal/config"
	"vitalstore/internal/handler"
	"vitalstore/internal/models"
	"vitalstore/internal/services"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T, authKey string) (http.Handler, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.MetricSample{},
		&models.DailyZone{},
		&models.SleepSummary{},
	))
	for _, table := range []string{models.TableRollup1m, models.TableRollup1h, models.TableRollup1d} {
		require.NoError(t, db.Table(table).AutoMigrate(&models.RollupSample{}))
	}

	mockConfig := &config.MockConfig{AuthKeyValue: authKey}
	server := handler.NewServer(db,
		services.NewQueryService(db),
		services.NewAdherenceService(db, mockConfig))
	return NewRouter(server, mockConfig), db
}

// TestRouter_Routes tests that every declared route is reachable
func TestRouter_Routes(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	for _, target := range []string{
		"/health", "/metrics",
		"/users", "/adherence",
		"/api/users", "/api/adherence",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Accept-Encoding", "identity")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, target)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestRouter_AuthProtectsAPI tests that API routes require the key while
// monitoring routes stay open
func TestRouter_AuthProtectsAPI(t *testing.T) {
	router, _ := setupTestRouter(t, "secret-key")

	for _, target := range []string{"/api/users", "/users"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRouter_ValidationSurfaces tests that handler validation reaches the wire
func TestRouter_ValidationSurfaces(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/data?start_date=bad", nil)
	req.Header.Set("Accept-Encoding", "identity")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
}

// TestRouter_DataAtRoot tests the documented query shape end to end
func TestRouter_DataAtRoot(t *testing.T) {
	router, db := setupTestRouter(t, "")

	at := time.Date(2022, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.MetricSample{
		Time: at, UserID: 1, MetricName: "intraday_heart_rate", Value: 72,
	}).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/data?start_date=2022-06-01&end_date=2022-06-02&metric=intraday_heart_rate&user_ids=1", nil)
	req.Header.Set("Accept-Encoding", "identity")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"value\":72")
}
