package services

import (
	"context"
	"fmt"
	"time"

	"vitalstore/internal/models"
	"vitalstore/internal/types"

	"gorm.io/gorm"
)

// Adherence rule thresholds.
const (
	staleUploadAfter   = 48 * time.Hour
	minWearPercentage  = 70.0
	goodSleepMinMins   = 240
	sleepWindowDays    = 7
	minGoodSleepNights = 5
)

// wearTimeMetric is the densest stream and therefore the most reliable
// wear-time signal.
const wearTimeMetric = "intraday_heart_rate"

// AdherenceEntry is one user's adherence report line.
type AdherenceEntry struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Flags []string `json:"flags"`
}

// AdherenceService derives per-user adherence flags from the stored data.
// These are plain threshold checks, not part of the store's core contract.
type AdherenceService struct {
	db  *gorm.DB
	cfg types.AdherenceConfig
}

// NewAdherenceService creates an AdherenceService.
func NewAdherenceService(db *gorm.DB, configManager types.ConfigManager) *AdherenceService {
	return &AdherenceService{db: db, cfg: configManager.GetAdherenceConfig()}
}

// GetReport builds the adherence report for all users.
func (s *AdherenceService) GetReport(ctx context.Context) (map[int64]*AdherenceEntry, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	now := time.Now().UTC()
	report := make(map[int64]*AdherenceEntry, len(users))
	for i := range users {
		report[users[i].UserID] = &AdherenceEntry{
			Name:  users[i].Name,
			Email: users[i].Email,
			Flags: []string{},
		}
	}

	for i := range users {
		user := &users[i]
		entry := report[user.UserID]
		if user.LastSeen == nil || now.Sub(user.LastSeen.UTC()) > staleUploadAfter {
			entry.Flags = append(entry.Flags, "No data uploaded in last 48 hours")
		}
		if !user.DeviceConnected {
			entry.Flags = append(entry.Flags, "No Token")
		}
	}

	wearByUser, err := s.wearPercentages(ctx, users, now)
	if err != nil {
		return nil, err
	}
	for userID, pct := range wearByUser {
		if pct < minWearPercentage {
			if entry, ok := report[userID]; ok {
				entry.Flags = append(entry.Flags, fmt.Sprintf("Low Wear Time (%.1f%%)", pct))
			}
		}
	}

	sleepCounts, err := s.goodSleepCounts(ctx)
	if err != nil {
		return nil, err
	}
	for userID, entry := range report {
		count := sleepCounts[userID]
		if count < minGoodSleepNights {
			entry.Flags = append(entry.Flags,
				fmt.Sprintf("Low Sleep Upload (%d/%d days with >4hr sleep)", count, sleepWindowDays))
		}
	}

	return report, nil
}

// wearPercentages computes each user's distinct worn minutes against the
// minutes elapsed since enrollment. Minute truncation is dialect-specific,
// matching how the connected database spells it.
func (s *AdherenceService) wearPercentages(ctx context.Context, users []models.User, now time.Time) (map[int64]float64, error) {
	var minuteExpr string
	switch s.db.Dialector.Name() {
	case "postgres":
		minuteExpr = "date_trunc('minute', time)"
	case "mysql":
		minuteExpr = "DATE_FORMAT(time, '%Y-%m-%d %H:%i')"
	default:
		minuteExpr = "strftime('%Y-%m-%d %H:%M', time)"
	}

	type wornRow struct {
		UserID      int64
		WornMinutes int64
	}
	var rows []wornRow
	err := s.db.WithContext(ctx).
		Model(&models.MetricSample{}).
		Select(fmt.Sprintf("user_id, COUNT(DISTINCT %s) AS worn_minutes", minuteExpr)).
		Where("metric_name = ?", wearTimeMetric).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count worn minutes: %w", err)
	}

	worn := make(map[int64]int64, len(rows))
	for _, row := range rows {
		worn[row.UserID] = row.WornMinutes
	}

	out := make(map[int64]float64, len(users))
	for i := range users {
		user := &users[i]
		enrolledDays := int(now.Sub(dateOnly(user.EnrollmentDate)).Hours()/24) + 1
		if enrolledDays < 1 {
			enrolledDays = 1
		}
		expectedMinutes := float64(enrolledDays) * 1440.0
		out[user.UserID] = float64(worn[user.UserID]) / expectedMinutes * 100.0
	}
	return out, nil
}

// goodSleepCounts counts nights with more than four hours of sleep in the
// trailing window, anchored at the configured reference date rather than a
// fixed historical constant.
func (s *AdherenceService) goodSleepCounts(ctx context.Context) (map[int64]int, error) {
	reference := s.cfg.ReferenceDate
	if reference.IsZero() {
		reference = time.Now().UTC()
	}
	windowStart := dateOnly(reference).AddDate(0, 0, -sleepWindowDays)

	type sleepRow struct {
		UserID     int64
		SleepCount int
	}
	var rows []sleepRow
	err := s.db.WithContext(ctx).
		Model(&models.SleepSummary{}).
		Select("user_id, COUNT(*) AS sleep_count").
		Where("date >= ? AND minutes_asleep > ?", windowStart, goodSleepMinMins).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count sleep uploads: %w", err)
	}

	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.SleepCount
	}
	return out, nil
}
