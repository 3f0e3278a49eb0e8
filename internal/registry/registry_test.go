package registry

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLookup_KnownMetrics tests lookups for representative metrics
func TestLookup_KnownMetrics(t *testing.T) {
	t.Parallel()

	cfg, ok := Lookup("intraday_heart_rate")
	require.True(t, ok)
	assert.Equal(t, time.Second, cfg.Granularity)
	assert.Equal(t, TargetSamples, cfg.Target)

	cfg, ok = Lookup("intraday_spo2")
	require.True(t, ok)
	assert.Equal(t, time.Minute, cfg.Granularity)

	cfg, ok = Lookup("breathing_rate_deep")
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, cfg.Granularity)

	cfg, ok = Lookup("sleep")
	require.True(t, ok)
	assert.Equal(t, TargetSleep, cfg.Target)
	assert.Equal(t, 24*time.Hour, cfg.Granularity)
	assert.Equal(t, "minutes_asleep", cfg.ValueColumn)
}

// TestLookup_UnknownMetric tests the miss path
func TestLookup_UnknownMetric(t *testing.T) {
	t.Parallel()

	_, ok := Lookup("step_count")
	assert.False(t, ok)
}

// TestMetricNames_StableOrder tests ordering and completeness
func TestMetricNames_StableOrder(t *testing.T) {
	t.Parallel()

	names := MetricNames()
	assert.Len(t, names, Count())
	assert.True(t, sort.StringsAreSorted(names))
	assert.Equal(t, names, MetricNames())

	// Every listed name resolves
	for _, name := range names {
		_, ok := Lookup(name)
		assert.True(t, ok, name)
	}
}
