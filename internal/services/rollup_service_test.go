package services

import (
	"context"
	"testing"

	"vitalstore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRefreshRollups_Cascade tests that one refresh fills all three tiers
func TestRefreshRollups_Cascade(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewRollupService(db)
	ctx := context.Background()

	day := ts(t, "2022-06-01T00:00:00Z")
	// Two samples in one minute, one in another hour
	samples := []models.MetricSample{
		{Time: ts(t, "2022-06-01T08:00:10Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 60},
		{Time: ts(t, "2022-06-01T08:00:40Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 70},
		{Time: ts(t, "2022-06-01T09:30:00Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 100},
	}
	require.NoError(t, db.Create(&samples).Error)

	require.NoError(t, svc.RefreshRollups(ctx, day))

	var minuteRows []models.RollupSample
	require.NoError(t, db.Table(models.TableRollup1m).Order("time").Find(&minuteRows).Error)
	require.Len(t, minuteRows, 2)
	assert.Equal(t, ts(t, "2022-06-01T08:00:00Z"), minuteRows[0].Time.UTC())
	assert.Equal(t, 65.0, minuteRows[0].AvgValue)
	assert.Equal(t, 100.0, minuteRows[1].AvgValue)

	var hourRows []models.RollupSample
	require.NoError(t, db.Table(models.TableRollup1h).Order("time").Find(&hourRows).Error)
	require.Len(t, hourRows, 2)
	assert.Equal(t, 65.0, hourRows[0].AvgValue)

	var dayRows []models.RollupSample
	require.NoError(t, db.Table(models.TableRollup1d).Find(&dayRows).Error)
	require.Len(t, dayRows, 1)
	assert.Equal(t, day, dayRows[0].Time.UTC())
	// Day average is over raw samples, not over minute buckets
	assert.InDelta(t, (60.0+70.0+100.0)/3.0, dayRows[0].AvgValue, 1e-9)
}

// TestRefreshRollups_Idempotent tests that re-running a day changes nothing
func TestRefreshRollups_Idempotent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewRollupService(db)
	ctx := context.Background()

	day := ts(t, "2022-06-01T00:00:00Z")
	require.NoError(t, db.Create(&models.MetricSample{
		Time: ts(t, "2022-06-01T08:00:10Z"), UserID: 1, MetricName: "intraday_spo2", Value: 95,
	}).Error)

	require.NoError(t, svc.RefreshRollups(ctx, day))
	require.NoError(t, svc.RefreshRollups(ctx, day))

	var count int64
	require.NoError(t, db.Table(models.TableRollup1m).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// TestRefreshRollups_RecomputeAfterLateData tests bucket replacement when a
// late sample lands in an already rolled-up bucket
func TestRefreshRollups_RecomputeAfterLateData(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewRollupService(db)
	ctx := context.Background()

	day := ts(t, "2022-06-01T00:00:00Z")
	require.NoError(t, db.Create(&models.MetricSample{
		Time: ts(t, "2022-06-01T08:00:10Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 60,
	}).Error)
	require.NoError(t, svc.RefreshRollups(ctx, day))

	require.NoError(t, db.Create(&models.MetricSample{
		Time: ts(t, "2022-06-01T08:00:40Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 70,
	}).Error)
	require.NoError(t, svc.RefreshRollups(ctx, day))

	var row models.RollupSample
	require.NoError(t, db.Table(models.TableRollup1m).First(&row).Error)
	assert.Equal(t, 65.0, row.AvgValue)
}

// TestRefreshRollups_ExcludesImputedSamples tests that imputed rows never
// feed the averages
func TestRefreshRollups_ExcludesImputedSamples(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewRollupService(db)
	ctx := context.Background()

	day := ts(t, "2022-06-01T00:00:00Z")
	samples := []models.MetricSample{
		{Time: ts(t, "2022-06-01T08:00:10Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 60},
		{Time: ts(t, "2022-06-01T08:00:40Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 200, IsImputed: true},
	}
	require.NoError(t, db.Create(&samples).Error)

	require.NoError(t, svc.RefreshRollups(ctx, day))

	var row models.RollupSample
	require.NoError(t, db.Table(models.TableRollup1m).First(&row).Error)
	assert.Equal(t, 60.0, row.AvgValue)
}

// TestRefreshRollups_WindowIsolation tests that only the given day is touched
func TestRefreshRollups_WindowIsolation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewRollupService(db)
	ctx := context.Background()

	samples := []models.MetricSample{
		{Time: ts(t, "2022-06-01T08:00:00Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 60},
		{Time: ts(t, "2022-06-02T08:00:00Z"), UserID: 1, MetricName: "intraday_heart_rate", Value: 70},
	}
	require.NoError(t, db.Create(&samples).Error)

	require.NoError(t, svc.RefreshRollups(ctx, ts(t, "2022-06-01T00:00:00Z")))

	var dayRows []models.RollupSample
	require.NoError(t, db.Table(models.TableRollup1d).Find(&dayRows).Error)
	require.Len(t, dayRows, 1)
	assert.Equal(t, ts(t, "2022-06-01T00:00:00Z"), dayRows[0].Time.UTC())

	// Empty days are a no-op
	require.NoError(t, svc.RefreshRollups(ctx, ts(t, "2022-06-10T00:00:00Z")))
}

// TestRefreshRollups_SeparatesUsersAndMetrics tests grouping keys
func TestRefreshRollups_SeparatesUsersAndMetrics(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewRollupService(db)
	ctx := context.Background()

	at := ts(t, "2022-06-01T08:00:10Z")
	samples := []models.MetricSample{
		{Time: at, UserID: 1, MetricName: "intraday_heart_rate", Value: 60},
		{Time: at, UserID: 2, MetricName: "intraday_heart_rate", Value: 80},
		{Time: at, UserID: 1, MetricName: "intraday_spo2", Value: 96},
	}
	require.NoError(t, db.Create(&samples).Error)

	require.NoError(t, svc.RefreshRollups(ctx, ts(t, "2022-06-01T00:00:00Z")))

	var count int64
	require.NoError(t, db.Table(models.TableRollup1m).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
