package types

import "time"

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetAuthConfig() AuthConfig
	GetCORSConfig() CORSConfig
	GetLogConfig() LogConfig
	GetDatabaseConfig() DatabaseConfig
	GetServerConfig() ServerConfig
	GetJobConfig() JobConfig
	GetAdherenceConfig() AdherenceConfig
	Validate() error
	DisplayServerConfig()
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// AuthConfig represents authentication configuration.
// An empty key disables authentication on the API routes.
type AuthConfig struct {
	Key string `json:"key"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	EnableFile bool   `json:"enable_file"`
	FilePath   string `json:"file_path"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

// JobConfig carries settings for the batch jobs (ingest, impute).
// The jobs are invoked by an external scheduler; nothing here schedules anything.
type JobConfig struct {
	// DeviceDataDir holds one JSON file per device metric with the full synthetic cycle.
	DeviceDataDir string `json:"device_data_dir"`
	// StateFile records the next logical day index for the ingest job.
	StateFile string `json:"state_file"`
	// DayCycle is the number of logical days before the ingest counter wraps to 1.
	DayCycle int `json:"day_cycle"`
	// UserIDs are the users the ingest job processes.
	UserIDs []int64 `json:"user_ids"`
	// ImputationConcurrency bounds the worker pool for per-(user,metric) units.
	ImputationConcurrency int `json:"imputation_concurrency"`
}

// AdherenceConfig parameterizes the adherence report business rules.
type AdherenceConfig struct {
	// ReferenceDate anchors the trailing sleep-upload window. Zero means "now".
	ReferenceDate time.Time `json:"reference_date"`
}
