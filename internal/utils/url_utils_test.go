package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeURLForLog(t *testing.T) {
	t.Parallel()

	u, err := url.Parse("/api/data?key=secret123&metric_name=heart_rate")
	require.NoError(t, err)
	sanitized := SanitizeURLForLog(u)
	assert.NotContains(t, sanitized, "secret123")
	assert.Contains(t, sanitized, "key=%2A%2A%2A")
	assert.Contains(t, sanitized, "metric_name=heart_rate")

	// urls without a key parameter pass through untouched
	u, err = url.Parse("/api/users?page=2")
	require.NoError(t, err)
	assert.Equal(t, "/api/users?page=2", SanitizeURLForLog(u))
}
