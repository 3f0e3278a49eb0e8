package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("VITALSTORE_TEST_ENV", "configured")
	assert.Equal(t, "configured", GetEnvOrDefault("VITALSTORE_TEST_ENV", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("VITALSTORE_TEST_ENV_MISSING", "fallback"))
}
