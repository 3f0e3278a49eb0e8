package container

import (
	"testing"

	"vitalstore/internal/services"
	"vitalstore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEnv sets up test environment variables
func setupTestEnv(t testing.TB) {
	t.Helper()
	t.Setenv("DATABASE_DSN", ":memory:")
	t.Setenv("PORT", "3001")
}

// TestBuildContainer tests container creation
func TestBuildContainer(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)
	require.NotNil(t, container)
}

// TestBuildContainer_ConfigManagerResolution tests config manager resolution
func TestBuildContainer_ConfigManagerResolution(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	var configManager types.ConfigManager
	err = container.Invoke(func(cm types.ConfigManager) {
		configManager = cm
	})
	require.NoError(t, err)
	assert.NotNil(t, configManager)
}

// TestBuildContainer_Services tests that the service graph resolves
func TestBuildContainer_Services(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(
		query *services.QueryService,
		ingest *services.IngestService,
		imputation *services.ImputationService,
		adherence *services.AdherenceService,
	) {
		assert.NotNil(t, query)
		assert.NotNil(t, ingest)
		assert.NotNil(t, imputation)
		assert.NotNil(t, adherence)
	})
	require.NoError(t, err)
}
