// Package commands implements the CLI subcommands run by an external
// scheduler: the batch ingestion job and the gap-fill imputation job.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"vitalstore/internal/config"
	"vitalstore/internal/db"
	"vitalstore/internal/metrics"
	"vitalstore/internal/parsers"
	"vitalstore/internal/services"
	"vitalstore/internal/types"
	"vitalstore/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// RunIngest executes one ingestion cycle: for every configured user, load the
// current logical day's device files, parse them, insert with deduplication,
// refresh rollups, and advance the day counter.
func RunIngest(args []string) {
	configManager, err := config.NewManager()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	utils.SetupLogger(configManager)

	database, err := db.NewDB(configManager)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	jobCfg := configManager.GetJobConfig()
	if jobCfg.DeviceDataDir == "" {
		logrus.Fatal("DEVICE_DATA_DIR is required for the ingest command")
	}
	if len(jobCfg.UserIDs) == 0 {
		logrus.Fatal("USER_IDS is required for the ingest command")
	}

	rollups := services.NewRollupService(database)
	ingest := services.NewIngestService(database, rollups)

	start := time.Now()
	metrics.IngestJobsTotal.Inc()

	day, err := readDayCounter(jobCfg.StateFile)
	if err != nil {
		logrus.Fatalf("Failed to read day counter: %v", err)
	}
	log := logrus.WithField("day", day)
	log.Info("Starting ingestion cycle")

	ctx := context.Background()
	if err := runIngestCycle(ctx, ingest, jobCfg, day, log); err != nil {
		metrics.IngestErrorsTotal.Inc()
		logrus.Fatalf("Ingestion cycle failed: %v", err)
	}

	if err := writeDayCounter(jobCfg.StateFile, services.NextDay(day, jobCfg.DayCycle)); err != nil {
		logrus.Fatalf("Failed to advance day counter: %v", err)
	}

	metrics.JobDurationSeconds.WithLabelValues("ingest").Set(time.Since(start).Seconds())
	log.Infof("Ingestion cycle completed in %v", time.Since(start))
}

func runIngestCycle(ctx context.Context, ingest *services.IngestService, jobCfg types.JobConfig, day int, log *logrus.Entry) error {
	deviceMetrics := deviceMetricNames()

	var failed int
	for _, userID := range jobCfg.UserIDs {
		if err := ingest.EnsureUser(ctx, userID, deviceMetrics); err != nil {
			return fmt.Errorf("ensure user %d: %w", userID, err)
		}

		var batch services.Batch
		for _, deviceMetric := range deviceMetrics {
			dayRecord, err := loadDayRecord(jobCfg.DeviceDataDir, deviceMetric, day)
			if err != nil {
				// One broken device file must not sink the other streams.
				log.WithError(err).Warnf("Skipping device metric %q for user %d", deviceMetric, userID)
				metrics.IngestErrorsTotal.Inc()
				failed++
				continue
			}
			parsed, err := parsers.ParseDay(deviceMetric, dayRecord, userID)
			if err != nil {
				log.WithError(err).Warnf("Skipping device metric %q for user %d", deviceMetric, userID)
				metrics.IngestErrorsTotal.Inc()
				failed++
				continue
			}
			batch.Samples = append(batch.Samples, parsed.Samples...)
			batch.Zones = append(batch.Zones, parsed.Zones...)
			batch.Sleep = append(batch.Sleep, parsed.Sleep...)
		}

		result, err := ingest.IngestBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("ingest batch for user %d: %w", userID, err)
		}
		log.WithFields(logrus.Fields{
			"user_id":        userID,
			"rows_inserted":  result.Total(),
			"days_refreshed": result.DaysRefreshed,
		}).Info("User ingested")
	}

	if failed > 0 {
		log.Warnf("%d device metric streams were skipped this cycle", failed)
	}
	return nil
}

// deviceMetricNames returns the device export keys in a stable order.
func deviceMetricNames() []string {
	names := make([]string, 0, len(parsers.ByDeviceMetric))
	for name := range parsers.ByDeviceMetric {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadDayRecord reads <dir>/<metric>.json, a JSON array holding one record
// per logical day of the cycle, and returns the record for the given day.
func loadDayRecord(dir, deviceMetric string, day int) (gjson.Result, error) {
	path := filepath.Join(dir, deviceMetric+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read device file: %w", err)
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return gjson.Result{}, fmt.Errorf("device file %s is not a JSON array", path)
	}
	records := parsed.Array()
	if day < 1 || day > len(records) {
		return gjson.Result{}, fmt.Errorf("device file %s has %d day records, day %d out of range", path, len(records), day)
	}
	return records[day-1], nil
}

// readDayCounter returns the next logical day index from the state file.
// A missing state file means the cycle starts at day 1.
func readDayCounter(stateFile string) (int, error) {
	if stateFile == "" {
		return 1, nil
	}
	raw, err := os.ReadFile(stateFile)
	if os.IsNotExist(err) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	day, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("state file %s: %w", stateFile, err)
	}
	if day < 1 {
		return 0, fmt.Errorf("state file %s holds invalid day %d", stateFile, day)
	}
	return day, nil
}

func writeDayCounter(stateFile string, day int) error {
	if stateFile == "" {
		return nil
	}
	return os.WriteFile(stateFile, []byte(strconv.Itoa(day)+"\n"), 0o644)
}
