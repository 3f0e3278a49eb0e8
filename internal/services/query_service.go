// Package services implements the multi-resolution store: ingestion, rollup
// maintenance, gap-fill imputation, tier-routed queries and adherence rules.
package services

import (
	"context"
	"fmt"
	"time"

	"vitalstore/internal/models"

	"gorm.io/gorm"
)

// Query pagination defaults. The page size bounds points per response, not
// accuracy; tier selection already caps density for wide ranges.
const (
	DefaultPageSize = 20000
	MaxPageSize     = 100000
)

// Tier is one resolution level the router can read from.
type Tier struct {
	Table       string
	ValueColumn string
}

// Tier span boundaries, inclusive.
var (
	tierRaw = Tier{Table: models.TableRawSamples, ValueColumn: "value"}
	tier1m  = Tier{Table: models.TableRollup1m, ValueColumn: "avg_value"}
	tier1h  = Tier{Table: models.TableRollup1h, ValueColumn: "avg_value"}
	tier1d  = Tier{Table: models.TableRollup1d, ValueColumn: "avg_value"}
)

// SelectTier picks the coarsest tier that still resolves the requested span.
// The decision is purely wall-clock span, not point count.
func SelectTier(start, end time.Time) Tier {
	span := end.Sub(start)
	switch {
	case span <= 2*24*time.Hour:
		return tierRaw
	case span <= 30*24*time.Hour:
		return tier1m
	case span <= 365*24*time.Hour:
		return tier1h
	default:
		return tier1d
	}
}

// DataPoint is the normalized output row regardless of backing tier.
type DataPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// DataPage is the paginated /data response body.
type DataPage struct {
	Data    []DataPoint `json:"data"`
	Page    int         `json:"page"`
	HasMore bool        `json:"has_more"`
}

// DataQuery are the validated parameters for GetData.
type DataQuery struct {
	Start    time.Time
	End      time.Time
	Metric   string
	UserIDs  []int64
	Page     int
	PageSize int
}

// QueryService serves read-only, stateless range queries over the tiers.
type QueryService struct {
	db *gorm.DB
}

// NewQueryService creates a QueryService.
func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{db: db}
}

// GetData queries the tier selected for the request span, ordered by time
// ascending. It fetches pageSize+1 rows to detect a next page without a
// separate COUNT, then trims the extra row.
func (s *QueryService) GetData(ctx context.Context, q DataQuery) (*DataPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}

	tier := SelectTier(q.Start, q.End)
	offset := (q.Page - 1) * q.PageSize

	// Table and column names come from the fixed tier set, never from input.
	var points []DataPoint
	err := s.db.WithContext(ctx).
		Table(tier.Table).
		Select(fmt.Sprintf("time, %s AS value", tier.ValueColumn)).
		Where("user_id IN ? AND metric_name = ? AND time BETWEEN ? AND ?",
			q.UserIDs, q.Metric, q.Start, q.End).
		Order("time").
		Limit(q.PageSize + 1).
		Offset(offset).
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tier.Table, err)
	}

	hasMore := len(points) > q.PageSize
	if hasMore {
		points = points[:q.PageSize]
	}
	if points == nil {
		points = []DataPoint{}
	}

	return &DataPage{
		Data:    points,
		Page:    q.Page,
		HasMore: hasMore,
	}, nil
}

// GetZones returns the zone boundaries for one user and day, keyed by zone name.
func (s *QueryService) GetZones(ctx context.Context, date time.Time, userID int64) (map[string]ZoneRange, error) {
	var zones []models.DailyZone
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, day).
		Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("query daily zones: %w", err)
	}

	out := make(map[string]ZoneRange, len(zones))
	for _, z := range zones {
		out[z.ZoneName] = ZoneRange{Min: z.MinHR, Max: z.MaxHR}
	}
	return out, nil
}

// ZoneRange is one zone's heart-rate boundary pair.
type ZoneRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// UserInfo is the public listing shape for a user.
type UserInfo struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// ListUsers returns all users ordered by name.
func (s *QueryService) ListUsers(ctx context.Context) ([]UserInfo, error) {
	var users []UserInfo
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("user_id, name").
		Order("name").
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	if users == nil {
		users = []UserInfo{}
	}
	return users, nil
}
