package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"vitalstore/internal/metrics"
	"vitalstore/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ingestBatchSize = 500

// SampleRecord is one parsed biometric sample handed to ingestion.
type SampleRecord struct {
	Time       time.Time
	UserID     int64
	MetricName string
	Value      float64
}

// ZoneRecord is one parsed heart-rate zone definition.
type ZoneRecord struct {
	Date     time.Time
	UserID   int64
	ZoneName string
	MinHR    int
	MaxHR    int
}

// SleepRecord is one parsed nightly sleep summary.
type SleepRecord struct {
	Date          time.Time
	UserID        int64
	MinutesAsleep float64
	Efficiency    *float64
}

// Batch is the unit of work the ingest job submits for one logical day.
type Batch struct {
	Samples []SampleRecord
	Zones   []ZoneRecord
	Sleep   []SleepRecord
}

// IngestResult accounts for rows actually inserted, post-dedup.
type IngestResult struct {
	SamplesInserted int64
	ZonesInserted   int64
	SleepInserted   int64
	DaysRefreshed   []time.Time
}

// Total returns the total number of rows inserted across all tables.
func (r IngestResult) Total() int64 {
	return r.SamplesInserted + r.ZonesInserted + r.SleepInserted
}

// IngestService converts parsed device records into idempotent inserts and
// keeps the rollup tiers current for the touched days.
type IngestService struct {
	db      *gorm.DB
	rollups *RollupService
}

// NewIngestService creates an IngestService.
func NewIngestService(db *gorm.DB, rollups *RollupService) *IngestService {
	return &IngestService{db: db, rollups: rollups}
}

// IngestBatch bulk-inserts a day's parsed records with insert-or-skip
// semantics, then synchronously refreshes rollups for every calendar day the
// batch actually touched. Re-submitting the same batch inserts zero rows.
//
// Each table's insert commits in its own transaction; a failed insert is
// surfaced without undoing the others, and the next scheduled run retries
// naturally because all writes are idempotent.
func (s *IngestService) IngestBatch(ctx context.Context, batch Batch) (IngestResult, error) {
	var result IngestResult

	if len(batch.Samples) > 0 {
		n, err := s.insertSamples(ctx, batch.Samples)
		if err != nil {
			return result, fmt.Errorf("insert samples: %w", err)
		}
		result.SamplesInserted = n
		metrics.IngestRowsTotal.WithLabelValues(models.TableRawSamples).Add(float64(n))
	}

	if len(batch.Zones) > 0 {
		n, err := s.insertZones(ctx, batch.Zones)
		if err != nil {
			return result, fmt.Errorf("insert zones: %w", err)
		}
		result.ZonesInserted = n
		metrics.IngestRowsTotal.WithLabelValues("daily_zones").Add(float64(n))
	}

	if len(batch.Sleep) > 0 {
		n, err := s.insertSleep(ctx, batch.Sleep)
		if err != nil {
			return result, fmt.Errorf("insert sleep summaries: %w", err)
		}
		result.SleepInserted = n
		metrics.IngestRowsTotal.WithLabelValues(models.TableSleepSummary).Add(float64(n))
	}

	// The rollup day is derived from the submitted samples as a set, never
	// from whichever metric happened to be parsed last.
	days := affectedDays(batch.Samples)
	for _, day := range days {
		if err := s.rollups.RefreshRollups(ctx, day); err != nil {
			return result, fmt.Errorf("refresh rollups for %s: %w", day.Format("2006-01-02"), err)
		}
	}
	result.DaysRefreshed = days

	return result, nil
}

func (s *IngestService) insertSamples(ctx context.Context, records []SampleRecord) (int64, error) {
	rows := make([]models.MetricSample, 0, len(records))
	for _, r := range records {
		rows = append(rows, models.MetricSample{
			Time:       r.Time,
			UserID:     r.UserID,
			MetricName: r.MetricName,
			Value:      r.Value,
		})
	}
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, ingestBatchSize)
	return tx.RowsAffected, tx.Error
}

func (s *IngestService) insertZones(ctx context.Context, records []ZoneRecord) (int64, error) {
	rows := make([]models.DailyZone, 0, len(records))
	for _, r := range records {
		rows = append(rows, models.DailyZone{
			Date:     dateOnly(r.Date),
			UserID:   r.UserID,
			ZoneName: r.ZoneName,
			MinHR:    r.MinHR,
			MaxHR:    r.MaxHR,
		})
	}
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, ingestBatchSize)
	return tx.RowsAffected, tx.Error
}

func (s *IngestService) insertSleep(ctx context.Context, records []SleepRecord) (int64, error) {
	rows := make([]models.SleepSummary, 0, len(records))
	for _, r := range records {
		rows = append(rows, models.SleepSummary{
			Date:          dateOnly(r.Date),
			UserID:        r.UserID,
			MinutesAsleep: r.MinutesAsleep,
			Efficiency:    r.Efficiency,
		})
	}
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, ingestBatchSize)
	return tx.RowsAffected, tx.Error
}

// EnsureUser creates the user row if absent and marks the device as seen.
// Enrollment date is fixed at first sight and never moved.
func (s *IngestService) EnsureUser(ctx context.Context, userID int64, devices []string) error {
	now := time.Now().UTC()
	user := models.User{
		UserID:          userID,
		Name:            fmt.Sprintf("User %d", userID),
		EnrollmentDate:  dateOnly(now),
		DeviceConnected: true,
		Devices:         datatypes.NewJSONSlice(devices),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}

	err = s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"last_seen": now, "device_connected": true}).Error
	if err != nil {
		return fmt.Errorf("touch user %d: %w", userID, err)
	}
	return nil
}

// NextDay advances the logical day index, wrapping to 1 after cycle.
// The caller owns persisting the value; the core only computes it.
func NextDay(day, cycle int) int {
	next := day + 1
	if next > cycle {
		return 1
	}
	return next
}

// affectedDays returns the distinct UTC calendar days covered by the records,
// sorted ascending.
func affectedDays(records []SampleRecord) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, r := range records {
		seen[dateOnly(r.Time.UTC())] = struct{}{}
	}
	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if len(days) > 1 {
		logrus.Debugf("Ingest batch spans %d calendar days", len(days))
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
