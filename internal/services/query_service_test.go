package services

import (
	"context"
	"testing"
	"time"

	"vitalstore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed.UTC()
}

// TestSelectTier_Boundaries tests the span routing table, both sides of each edge
func TestSelectTier_Boundaries(t *testing.T) {
	t.Parallel()

	start := ts(t, "2022-06-01T00:00:00Z")
	tests := []struct {
		name  string
		span  time.Duration
		table string
	}{
		{"one hour", time.Hour, models.TableRawSamples},
		{"exactly two days", 2 * 24 * time.Hour, models.TableRawSamples},
		{"two days and a second", 2*24*time.Hour + time.Second, models.TableRollup1m},
		{"exactly thirty days", 30 * 24 * time.Hour, models.TableRollup1m},
		{"thirty days and a second", 30*24*time.Hour + time.Second, models.TableRollup1h},
		{"exactly a year", 365 * 24 * time.Hour, models.TableRollup1h},
		{"a year and a second", 365*24*time.Hour + time.Second, models.TableRollup1d},
		{"five years", 5 * 365 * 24 * time.Hour, models.TableRollup1d},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier := SelectTier(start, start.Add(tt.span))
			assert.Equal(t, tt.table, tier.Table)
		})
	}
}

// TestGetData_ReadsSelectedTier tests that raw and rollup tiers are
// independently addressable through the same endpoint
func TestGetData_ReadsSelectedTier(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewQueryService(db)
	ctx := context.Background()

	base := ts(t, "2022-06-01T08:00:00Z")
	require.NoError(t, db.Create(&models.MetricSample{
		Time: base, UserID: 1, MetricName: "intraday_heart_rate", Value: 72,
	}).Error)
	require.NoError(t, db.Table(models.TableRollup1m).Create(&models.RollupSample{
		Time: base, UserID: 1, MetricName: "intraday_heart_rate", AvgValue: 70.5,
	}).Error)

	// Narrow span reads raw values
	page, err := svc.GetData(ctx, DataQuery{
		Start: base.Add(-time.Hour), End: base.Add(time.Hour),
		Metric: "intraday_heart_rate", UserIDs: []int64{1},
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 72.0, page.Data[0].Value)

	// Wide span reads the 1m rollup (avg_value surfaced as value)
	page, err = svc.GetData(ctx, DataQuery{
		Start: base.AddDate(0, 0, -5), End: base.AddDate(0, 0, 5),
		Metric: "intraday_heart_rate", UserIDs: []int64{1},
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 70.5, page.Data[0].Value)
}

// TestGetData_Pagination tests the pageSize+1 has_more probe
func TestGetData_Pagination(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewQueryService(db)
	ctx := context.Background()

	base := ts(t, "2022-06-01T08:00:00Z")
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.MetricSample{
			Time: base.Add(time.Duration(i) * time.Second), UserID: 1,
			MetricName: "intraday_heart_rate", Value: float64(60 + i),
		}).Error)
	}

	q := DataQuery{
		Start: base, End: base.Add(time.Minute),
		Metric: "intraday_heart_rate", UserIDs: []int64{1}, PageSize: 2,
	}

	// Page 1: full page, more available
	page, err := svc.GetData(ctx, q)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 60.0, page.Data[0].Value)

	// Page 3: last row only, no more
	q.Page = 3
	page, err = svc.GetData(ctx, q)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, 64.0, page.Data[0].Value)

	// Page past the end: empty, not nil
	q.Page = 4
	page, err = svc.GetData(ctx, q)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.False(t, page.HasMore)
}

// TestGetData_ExactPageBoundary tests that a result set equal to the page
// size reports no further pages
func TestGetData_ExactPageBoundary(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewQueryService(db)

	base := ts(t, "2022-06-01T08:00:00Z")
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.MetricSample{
			Time: base.Add(time.Duration(i) * time.Second), UserID: 1,
			MetricName: "intraday_heart_rate", Value: float64(i),
		}).Error)
	}

	page, err := svc.GetData(context.Background(), DataQuery{
		Start: base, End: base.Add(time.Minute),
		Metric: "intraday_heart_rate", UserIDs: []int64{1}, PageSize: 3,
	})
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)
	assert.False(t, page.HasMore)
}

// TestGetData_MultiUser tests the user_id IN filter
func TestGetData_MultiUser(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewQueryService(db)

	base := ts(t, "2022-06-01T08:00:00Z")
	for userID := int64(1); userID <= 3; userID++ {
		require.NoError(t, db.Create(&models.MetricSample{
			Time: base, UserID: userID, MetricName: "intraday_heart_rate", Value: float64(userID),
		}).Error)
	}

	page, err := svc.GetData(context.Background(), DataQuery{
		Start: base.Add(-time.Hour), End: base.Add(time.Hour),
		Metric: "intraday_heart_rate", UserIDs: []int64{1, 3},
	})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

// TestGetZones tests zone retrieval keyed by zone name
func TestGetZones(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewQueryService(db)

	day := ts(t, "2022-06-01T00:00:00Z")
	for _, zone := range []models.DailyZone{
		{Date: day, UserID: 1, ZoneName: "Fat Burn", MinHR: 98, MaxHR: 137},
		{Date: day, UserID: 1, ZoneName: "Cardio", MinHR: 137, MaxHR: 167},
	} {
		require.NoError(t, db.Create(&zone).Error)
	}

	zones, err := svc.GetZones(context.Background(), day, 1)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, ZoneRange{Min: 98, Max: 137}, zones["Fat Burn"])
	assert.Equal(t, ZoneRange{Min: 137, Max: 167}, zones["Cardio"])

	// Unknown day is empty, not an error
	zones, err = svc.GetZones(context.Background(), day.AddDate(0, 0, 1), 1)
	require.NoError(t, err)
	assert.Empty(t, zones)
}

// TestListUsers tests the user directory ordering
func TestListUsers(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewQueryService(db)

	enrollment := ts(t, "2022-06-01T00:00:00Z")
	require.NoError(t, db.Create(&models.User{UserID: 2, Name: "Zoe", EnrollmentDate: enrollment}).Error)
	require.NoError(t, db.Create(&models.User{UserID: 1, Name: "Ada", EnrollmentDate: enrollment}).Error)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ada", users[0].Name)
	assert.Equal(t, int64(1), users[0].UserID)
	assert.Equal(t, "Zoe", users[1].Name)
}
