// Package registry holds the immutable per-metric configuration that drives
// gap-fill imputation: which table a metric lives in and at what bucket width
// its samples are expected.
package registry

import (
	"sort"
	"time"
)

// Target identifies the structural shape a metric is stored in.
type Target int

const (
	// TargetSamples is the (time, user, metric, value) sample stream.
	TargetSamples Target = iota
	// TargetSleep is the one-row-per-day sleep summary, which requires both
	// minutes asleep and efficiency to be present.
	TargetSleep
)

// MetricConfig describes how one metric is stored and bucketed.
type MetricConfig struct {
	// Granularity is the expected spacing between samples.
	Granularity time.Duration
	// Target selects the destination table shape.
	Target Target
	// ValueColumn is the column interpolation reads and writes.
	ValueColumn string
}

// metricConfigs is loaded once and never mutated.
var metricConfigs = map[string]MetricConfig{
	"intraday_heart_rate":  {Granularity: time.Second, Target: TargetSamples, ValueColumn: "value"},
	"intraday_spo2":        {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"breathing_rate_deep":  {Granularity: 24 * time.Hour, Target: TargetSamples, ValueColumn: "value"},
	"breathing_rate_rem":   {Granularity: 24 * time.Hour, Target: TargetSamples, ValueColumn: "value"},
	"breathing_rate_light": {Granularity: 24 * time.Hour, Target: TargetSamples, ValueColumn: "value"},
	"breathing_rate_full":  {Granularity: 24 * time.Hour, Target: TargetSamples, ValueColumn: "value"},
	"intraday_activity":    {Granularity: 24 * time.Hour, Target: TargetSamples, ValueColumn: "value"},
	"hrv_rmssd":            {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"hrv_coverage":         {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"hrv_hf":               {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"hrv_lf":               {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"azm_fat_burn":         {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"azm_cardio":           {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"azm_peak":             {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"azm_total":            {Granularity: time.Minute, Target: TargetSamples, ValueColumn: "value"},
	"sleep":                {Granularity: 24 * time.Hour, Target: TargetSleep, ValueColumn: "minutes_asleep"},
}

// Lookup returns the configuration for a metric name.
func Lookup(name string) (MetricConfig, bool) {
	cfg, ok := metricConfigs[name]
	return cfg, ok
}

// MetricNames returns all configured metric names in stable order.
func MetricNames() []string {
	names := make([]string, 0, len(metricConfigs))
	for name := range metricConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of configured metrics.
func Count() int {
	return len(metricConfigs)
}
