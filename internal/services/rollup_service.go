package services

import (
	"context"
	"fmt"
	"time"

	"vitalstore/internal/models"
	"vitalstore/internal/timeseries"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RollupTier pairs a bucket width with its destination table.
type RollupTier struct {
	Step  time.Duration
	Table string
}

// rollupTiers is the fixed cascade, finest first.
var rollupTiers = []RollupTier{
	{Step: time.Minute, Table: models.TableRollup1m},
	{Step: time.Hour, Table: models.TableRollup1h},
	{Step: 24 * time.Hour, Table: models.TableRollup1d},
}

const rollupBatchSize = 500

// RollupService recomputes the aggregate tiers from raw samples.
type RollupService struct {
	db *gorm.DB
}

// NewRollupService creates a RollupService.
func NewRollupService(db *gorm.DB) *RollupService {
	return &RollupService{db: db}
}

// RefreshRollups recomputes all tiers for the half-open window [day, day+1).
// Only non-imputed raw samples feed the averages, so rollups keep reflecting
// ground truth while the imputation engine backfills independently. The whole
// day commits in one transaction: all tiers or none.
func (s *RollupService) RefreshRollups(ctx context.Context, day time.Time) error {
	start, end := timeseries.DayWindow(day)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var samples []models.MetricSample
		err := tx.
			Select("time, user_id, metric_name, value").
			Where("time >= ? AND time < ? AND is_imputed = ?", start, end, false).
			Find(&samples).Error
		if err != nil {
			return fmt.Errorf("load raw samples for %s: %w", start.Format("2006-01-02"), err)
		}

		if len(samples) == 0 {
			logrus.Debugf("No raw samples for %s, nothing to roll up", start.Format("2006-01-02"))
			return nil
		}

		for _, tier := range rollupTiers {
			rows := aggregateTier(samples, tier.Step)
			if len(rows) == 0 {
				continue
			}
			err := tx.Table(tier.Table).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "time"}, {Name: "user_id"}, {Name: "metric_name"}},
					DoUpdates: clause.AssignmentColumns([]string{"avg_value"}),
				}).
				CreateInBatches(rows, rollupBatchSize).Error
			if err != nil {
				return fmt.Errorf("upsert %s: %w", tier.Table, err)
			}
			logrus.Debugf("Upserted %d buckets into %s for %s", len(rows), tier.Table, start.Format("2006-01-02"))
		}
		return nil
	})
}

type rollupKey struct {
	bucket time.Time
	userID int64
	metric string
}

// aggregateTier buckets raw timestamps at the tier width and averages values
// per (bucket, user, metric). The average over a fixed input set makes
// recomputation idempotent; existing bucket values are fully replaced.
func aggregateTier(samples []models.MetricSample, step time.Duration) []models.RollupSample {
	type agg struct {
		sum   float64
		count int
	}
	byKey := make(map[rollupKey]*agg)
	for _, sample := range samples {
		key := rollupKey{
			bucket: timeseries.Bucket(sample.Time, step),
			userID: sample.UserID,
			metric: sample.MetricName,
		}
		a, ok := byKey[key]
		if !ok {
			a = &agg{}
			byKey[key] = a
		}
		a.sum += sample.Value
		a.count++
	}

	rows := make([]models.RollupSample, 0, len(byKey))
	for key, a := range byKey {
		rows = append(rows, models.RollupSample{
			Time:       key.bucket,
			UserID:     key.userID,
			MetricName: key.metric,
			AvgValue:   a.sum / float64(a.count),
		})
	}
	return rows
}
