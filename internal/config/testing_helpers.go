package config

import (
	"time"

	"vitalstore/internal/types"
)

// MockConfig implements types.ConfigManager for testing
type MockConfig struct {
	AuthKeyValue  string
	DSN           string
	ReferenceDate time.Time
}

// GetServerConfig returns mock server configuration
func (m *MockConfig) GetServerConfig() types.ServerConfig {
	return types.ServerConfig{
		Port:                    3001,
		Host:                    "0.0.0.0",
		ReadTimeout:             60,
		WriteTimeout:            60,
		IdleTimeout:             120,
		GracefulShutdownTimeout: 10,
	}
}

// GetAuthConfig returns mock auth configuration
func (m *MockConfig) GetAuthConfig() types.AuthConfig {
	return types.AuthConfig{Key: m.AuthKeyValue}
}

// GetCORSConfig returns mock CORS configuration
func (m *MockConfig) GetCORSConfig() types.CORSConfig {
	return types.CORSConfig{
		Enabled:        false,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}
}

// GetLogConfig returns mock log configuration
func (m *MockConfig) GetLogConfig() types.LogConfig {
	return types.LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// GetDatabaseConfig returns mock database configuration
func (m *MockConfig) GetDatabaseConfig() types.DatabaseConfig {
	dsn := m.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	return types.DatabaseConfig{DSN: dsn}
}

// GetJobConfig returns mock batch job configuration
func (m *MockConfig) GetJobConfig() types.JobConfig {
	return types.JobConfig{
		DeviceDataDir:         "./testdata",
		StateFile:             "./testdata/day_counter.txt",
		DayCycle:              30,
		UserIDs:               []int64{1},
		ImputationConcurrency: 1,
	}
}

// GetAdherenceConfig returns mock adherence configuration
func (m *MockConfig) GetAdherenceConfig() types.AdherenceConfig {
	return types.AdherenceConfig{ReferenceDate: m.ReferenceDate}
}

// Validate validates the configuration
func (m *MockConfig) Validate() error {
	return nil
}

// DisplayServerConfig displays server configuration (no-op for mock)
func (m *MockConfig) DisplayServerConfig() {
}
