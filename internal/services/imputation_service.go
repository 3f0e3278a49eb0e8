package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"vitalstore/internal/metrics"
	"vitalstore/internal/models"
	"vitalstore/internal/registry"
	"vitalstore/internal/timeseries"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const imputeBatchSize = 500

// ImputationService backfills missing buckets per (user, metric) over the
// user's full enrollment span, using linear interpolation between the nearest
// existing buckets. Imputed rows are tagged and inserted with conflict-skip,
// so re-running the engine never overwrites or duplicates anything.
type ImputationService struct {
	db          *gorm.DB
	concurrency int
}

// NewImputationService creates an ImputationService.
func NewImputationService(db *gorm.DB, concurrency int) *ImputationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ImputationService{db: db, concurrency: concurrency}
}

// ImputationSummary reports the outcome of one engine run.
type ImputationSummary struct {
	Users        int
	Units        int
	UnitsFailed  int64
	RowsInserted int64
}

// RunImputation processes every known user against every configured metric.
// Units are independent: each commits its own inserts, and a unit failure is
// logged and skipped without blocking the rest. An error return means the run
// failed before any unit could be dispatched.
func (s *ImputationService) RunImputation(ctx context.Context) (ImputationSummary, error) {
	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)

	var users []models.User
	if err := s.db.WithContext(ctx).Select("user_id, enrollment_date").Find(&users).Error; err != nil {
		return ImputationSummary{}, fmt.Errorf("load users: %w", err)
	}
	metricNames := registry.MetricNames()
	log.Infof("Imputation run starting: %d users x %d metrics", len(users), len(metricNames))

	var rowsInserted, unitsFailed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, user := range users {
		for _, metricName := range metricNames {
			user, metricName := user, metricName
			cfg, _ := registry.Lookup(metricName)
			g.Go(func() error {
				inserted, err := s.imputeUnit(ctx, user, metricName, cfg)
				if err != nil {
					unitsFailed.Add(1)
					metrics.ImputationUnitErrorsTotal.Inc()
					log.WithError(err).WithFields(logrus.Fields{
						"user_id": user.UserID,
						"metric":  metricName,
					}).Error("Imputation unit failed, skipping")
					return nil
				}
				if inserted > 0 {
					rowsInserted.Add(inserted)
					metrics.ImputationRowsTotal.WithLabelValues(metricName).Add(float64(inserted))
					log.Debugf("Imputed %d rows for user %d metric %s", inserted, user.UserID, metricName)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	summary := ImputationSummary{
		Users:        len(users),
		Units:        len(users) * len(metricNames),
		UnitsFailed:  unitsFailed.Load(),
		RowsInserted: rowsInserted.Load(),
	}
	log.Infof("Imputation run finished: %d rows inserted, %d/%d units failed",
		summary.RowsInserted, summary.UnitsFailed, summary.Units)
	return summary, nil
}

// imputeUnit fills gaps for one (user, metric) pair. The fill window is
// [enrollment date, today]; buckets outside it are never written even when a
// metric's granularity exceeds the available history.
func (s *ImputationService) imputeUnit(ctx context.Context, user models.User, metricName string, cfg registry.MetricConfig) (int64, error) {
	windowStart := dateOnly(user.EnrollmentDate)
	windowEnd := dateOnly(time.Now().UTC()).Add(24 * time.Hour)
	window := timeseries.NewRange(windowStart, windowEnd, cfg.Granularity)

	switch cfg.Target {
	case registry.TargetSleep:
		return s.imputeSleep(ctx, user.UserID, window)
	default:
		return s.imputeSamples(ctx, user.UserID, metricName, window)
	}
}

// bucketPoint is one non-empty bucket: the averaged value of its samples.
type bucketPoint struct {
	bucket time.Time
	value  float64
}

func (s *ImputationService) imputeSamples(ctx context.Context, userID int64, metricName string, window timeseries.Range) (int64, error) {
	points, err := s.loadBucketPoints(ctx, userID, metricName, window.Step)
	if err != nil {
		return 0, err
	}
	// Fewer than two observed buckets means nothing can be interpolated.
	if len(points) < 2 {
		return 0, nil
	}

	var rows []models.MetricSample
	fillGaps(points, window, func(bucket time.Time, value float64) {
		rows = append(rows, models.MetricSample{
			Time:       bucket,
			UserID:     userID,
			MetricName: metricName,
			Value:      value,
			IsImputed:  true,
		})
	})
	if len(rows) == 0 {
		return 0, nil
	}

	var inserted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(rows, imputeBatchSize)
		inserted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("insert imputed samples: %w", err)
	}
	return inserted, nil
}

// loadBucketPoints streams the existing samples in time order and averages
// them per bucket, mirroring how the rollup engine groups raw timestamps.
func (s *ImputationService) loadBucketPoints(ctx context.Context, userID int64, metricName string, step time.Duration) ([]bucketPoint, error) {
	rows, err := s.db.WithContext(ctx).
		Model(&models.MetricSample{}).
		Select("time, value").
		Where("user_id = ? AND metric_name = ?", userID, metricName).
		Order("time").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	defer rows.Close()

	var points []bucketPoint
	var cur time.Time
	var sum float64
	var count int
	flush := func() {
		if count > 0 {
			points = append(points, bucketPoint{bucket: cur, value: sum / float64(count)})
		}
		sum, count = 0, 0
	}

	for rows.Next() {
		var t time.Time
		var v float64
		if err := rows.Scan(&t, &v); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		bucket := timeseries.Bucket(t.UTC(), step)
		if count > 0 && !bucket.Equal(cur) {
			flush()
		}
		cur = bucket
		sum += v
		count++
	}
	flush()
	return points, rows.Err()
}

// fillGaps walks consecutive observed buckets and emits a linearly
// interpolated value for every empty bucket between them, clamped to the
// fill window. Leading and trailing gaps have only one neighbor and are
// left alone.
func fillGaps(points []bucketPoint, window timeseries.Range, emit func(bucket time.Time, value float64)) {
	for i := 1; i < len(points); i++ {
		prev, next := points[i-1], points[i]
		steps := int(next.bucket.Sub(prev.bucket) / window.Step)
		if steps <= 1 {
			continue
		}
		for k := 1; k < steps; k++ {
			bucket := prev.bucket.Add(time.Duration(k) * window.Step)
			if !window.Contains(bucket) {
				continue
			}
			frac := float64(k) / float64(steps)
			emit(bucket, prev.value+(next.value-prev.value)*frac)
		}
	}
}

// sleepPoint is one observed sleep-summary night.
type sleepPoint struct {
	date       time.Time
	minutes    float64
	efficiency *float64
}

// imputeSleep handles the structurally different sleep-summary shape: a
// bucket is imputed only when BOTH minutes asleep and efficiency interpolate
// to non-null values. A partial result discards the bucket entirely.
func (s *ImputationService) imputeSleep(ctx context.Context, userID int64, window timeseries.Range) (int64, error) {
	var summaries []models.SleepSummary
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date").
		Find(&summaries).Error
	if err != nil {
		return 0, fmt.Errorf("load sleep summaries: %w", err)
	}
	if len(summaries) < 2 {
		return 0, nil
	}

	points := make([]sleepPoint, 0, len(summaries))
	for _, row := range summaries {
		points = append(points, sleepPoint{
			date:       dateOnly(row.Date),
			minutes:    row.MinutesAsleep,
			efficiency: row.Efficiency,
		})
	}

	var rows []models.SleepSummary
	for i := 1; i < len(points); i++ {
		prev, next := points[i-1], points[i]
		steps := int(next.date.Sub(prev.date) / window.Step)
		if steps <= 1 {
			continue
		}
		// The completeness gate: without efficiency on both neighbors the
		// secondary column cannot interpolate, so no bucket in this gap is
		// written at all.
		if prev.efficiency == nil || next.efficiency == nil {
			continue
		}
		for k := 1; k < steps; k++ {
			date := prev.date.Add(time.Duration(k) * window.Step)
			if !window.Contains(date) {
				continue
			}
			frac := float64(k) / float64(steps)
			eff := *prev.efficiency + (*next.efficiency-*prev.efficiency)*frac
			rows = append(rows, models.SleepSummary{
				Date:          date,
				UserID:        userID,
				MinutesAsleep: prev.minutes + (next.minutes-prev.minutes)*frac,
				Efficiency:    &eff,
				IsImputed:     true,
			})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var inserted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(rows, imputeBatchSize)
		inserted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("insert imputed sleep summaries: %w", err)
	}
	return inserted, nil
}
