// Package config provides environment-based configuration management
package config

import (
	"fmt"
	"time"

	"vitalstore/internal/types"
	"vitalstore/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Constants for configuration defaults
const (
	DefaultPort                    = 3001
	DefaultHost                    = "0.0.0.0"
	DefaultReadTimeout             = 60
	DefaultWriteTimeout            = 60
	DefaultIdleTimeout             = 120
	DefaultGracefulShutdownTimeout = 10
	DefaultDayCycle                = 30
	DefaultImputationConcurrency   = 4
)

// Manager implements the types.ConfigManager interface
type Manager struct {
	config *Config
}

// Config holds all configuration sections
type Config struct {
	Server    types.ServerConfig    `json:"server"`
	Auth      types.AuthConfig      `json:"auth"`
	CORS      types.CORSConfig      `json:"cors"`
	Log       types.LogConfig       `json:"log"`
	Database  types.DatabaseConfig  `json:"database"`
	Job       types.JobConfig       `json:"job"`
	Adherence types.AdherenceConfig `json:"adherence"`
}

// NewManager creates a new configuration manager from the process environment.
func NewManager() (types.ConfigManager, error) {
	// A .env file is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using system environment variables")
	}

	config := &Config{
		Server: types.ServerConfig{
			Port:                    utils.ParseInteger(utils.GetEnvOrDefault("PORT", ""), DefaultPort),
			Host:                    utils.GetEnvOrDefault("HOST", DefaultHost),
			ReadTimeout:             utils.ParseInteger(utils.GetEnvOrDefault("SERVER_READ_TIMEOUT", ""), DefaultReadTimeout),
			WriteTimeout:            utils.ParseInteger(utils.GetEnvOrDefault("SERVER_WRITE_TIMEOUT", ""), DefaultWriteTimeout),
			IdleTimeout:             utils.ParseInteger(utils.GetEnvOrDefault("SERVER_IDLE_TIMEOUT", ""), DefaultIdleTimeout),
			GracefulShutdownTimeout: utils.ParseInteger(utils.GetEnvOrDefault("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", ""), DefaultGracefulShutdownTimeout),
		},
		Auth: types.AuthConfig{
			Key: utils.GetEnvOrDefault("AUTH_KEY", ""),
		},
		CORS: types.CORSConfig{
			Enabled:          utils.ParseBoolean(utils.GetEnvOrDefault("ENABLE_CORS", "true"), true),
			AllowedOrigins:   utils.ParseArray(utils.GetEnvOrDefault("ALLOWED_ORIGINS", "*")),
			AllowedMethods:   utils.ParseArray(utils.GetEnvOrDefault("ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")),
			AllowedHeaders:   utils.ParseArray(utils.GetEnvOrDefault("ALLOWED_HEADERS", "*")),
			AllowCredentials: utils.ParseBoolean(utils.GetEnvOrDefault("ALLOW_CREDENTIALS", "false"), false),
		},
		Log: types.LogConfig{
			Level:      utils.GetEnvOrDefault("LOG_LEVEL", "info"),
			Format:     utils.GetEnvOrDefault("LOG_FORMAT", "text"),
			EnableFile: utils.ParseBoolean(utils.GetEnvOrDefault("LOG_ENABLE_FILE", "false"), false),
			FilePath:   utils.GetEnvOrDefault("LOG_FILE_PATH", "./data/logs/app.log"),
		},
		Database: types.DatabaseConfig{
			DSN: utils.GetEnvOrDefault("DATABASE_DSN", ""),
		},
		Job: types.JobConfig{
			DeviceDataDir:         utils.GetEnvOrDefault("DEVICE_DATA_DIR", "./data/devices"),
			StateFile:             utils.GetEnvOrDefault("STATE_FILE", "./data/state/day_counter.txt"),
			DayCycle:              utils.ParseInteger(utils.GetEnvOrDefault("INGEST_DAY_CYCLE", ""), DefaultDayCycle),
			UserIDs:               parseUserIDs(utils.GetEnvOrDefault("INGEST_USER_IDS", "1,2,3")),
			ImputationConcurrency: utils.ParseInteger(utils.GetEnvOrDefault("IMPUTATION_CONCURRENCY", ""), DefaultImputationConcurrency),
		},
		Adherence: types.AdherenceConfig{
			ReferenceDate: parseReferenceDate(utils.GetEnvOrDefault("ADHERENCE_REFERENCE_DATE", "")),
		},
	}

	manager := &Manager{config: config}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return manager, nil
}

func parseUserIDs(value string) []int64 {
	ids, err := utils.ParseIDList(value)
	if err != nil {
		logrus.Warnf("Invalid INGEST_USER_IDS %q, ignoring: %v", value, err)
		return nil
	}
	return ids
}

// parseReferenceDate accepts YYYY-MM-DD. An unset or malformed value means "now";
// the adherence report resolves the zero time at query time.
func parseReferenceDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		logrus.Warnf("Invalid ADHERENCE_REFERENCE_DATE %q, falling back to now: %v", value, err)
		return time.Time{}
	}
	return t
}

// Validate checks the configuration for fatal problems.
func (m *Manager) Validate() error {
	if m.config.Server.Port < 1 || m.config.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", m.config.Server.Port)
	}
	if m.config.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if m.config.Job.DayCycle < 1 {
		return fmt.Errorf("INGEST_DAY_CYCLE must be at least 1, got %d", m.config.Job.DayCycle)
	}
	if m.config.Job.ImputationConcurrency < 1 {
		return fmt.Errorf("IMPUTATION_CONCURRENCY must be at least 1, got %d", m.config.Job.ImputationConcurrency)
	}
	return nil
}

// GetAuthConfig returns the authentication configuration
func (m *Manager) GetAuthConfig() types.AuthConfig {
	return m.config.Auth
}

// GetCORSConfig returns the CORS configuration
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return m.config.CORS
}

// GetLogConfig returns the logging configuration
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.config.Log
}

// GetDatabaseConfig returns the database configuration
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig {
	return m.config.Database
}

// GetServerConfig returns the server configuration
func (m *Manager) GetServerConfig() types.ServerConfig {
	return m.config.Server
}

// GetJobConfig returns the batch job configuration
func (m *Manager) GetJobConfig() types.JobConfig {
	return m.config.Job
}

// GetAdherenceConfig returns the adherence report configuration
func (m *Manager) GetAdherenceConfig() types.AdherenceConfig {
	return m.config.Adherence
}

// DisplayServerConfig logs the effective configuration at startup.
func (m *Manager) DisplayServerConfig() {
	logrus.Info("Server configuration:")
	logrus.Infof("  Listen: %s:%d", m.config.Server.Host, m.config.Server.Port)
	logrus.Infof("  Log level: %s (format: %s)", m.config.Log.Level, m.config.Log.Format)
	logrus.Infof("  CORS enabled: %v", m.config.CORS.Enabled)
	logrus.Infof("  Ingest users: %v, day cycle: %d", m.config.Job.UserIDs, m.config.Job.DayCycle)
	if m.config.Auth.Key == "" {
		logrus.Warn("  AUTH_KEY not set, API authentication disabled")
	}
}
