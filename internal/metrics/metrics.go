// Package metrics defines the operational counters and gauges exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DataRequestsTotal counts /data requests per requested metric.
	DataRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "data_requests_total",
		Help: "Total number of requests to the /data endpoint",
	}, []string{"metric_name"})

	// IngestRowsTotal counts rows actually inserted (post-dedup) per table.
	IngestRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_rows_inserted_total",
		Help: "Rows inserted by the ingestion job after deduplication",
	}, []string{"table"})

	// IngestJobsTotal counts ingestion job runs.
	IngestJobsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingestion_jobs_total",
		Help: "Total number of ingestion jobs attempted",
	})

	// IngestErrorsTotal counts failed ingestion job runs.
	IngestErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingestion_errors_total",
		Help: "Total number of failed ingestion jobs",
	})

	// ImputationRowsTotal counts imputed rows inserted per metric.
	ImputationRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imputation_rows_inserted_total",
		Help: "Imputed rows inserted by the gap-fill engine",
	}, []string{"metric_name"})

	// ImputationUnitErrorsTotal counts failed (user, metric) imputation units.
	ImputationUnitErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imputation_unit_errors_total",
		Help: "Per-(user,metric) imputation failures that were skipped",
	})

	// JobDurationSeconds records the duration of the last run per job.
	JobDurationSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "job_duration_seconds",
		Help: "Duration of the last job run in seconds",
	}, []string{"job"})
)

// Handler returns the pull-based exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
