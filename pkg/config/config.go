// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	// Record source: "snowflake" or "csv"
	Source  string
	CSVPath string

	// Database connections
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Pipeline settings
	PolicyPath string
	Workers    int // 0 means use runtime.NumCPU()

	// Audit trail persistence
	AuditEnabled bool

	// Report output
	ReportDir string

	// Prometheus exposition address, empty disables the endpoint
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Source:       getEnv("RECORD_SOURCE", "csv"),
		CSVPath:      getEnv("CSV_PATH", "customer_data.csv"),
		PolicyPath:   getEnv("POLICY_PATH", ""),
		Workers:      getEnvAsInt("WORKER_POOL_SIZE", 0),
		AuditEnabled: getEnvAsBool("AUDIT_ENABLED", false),
		ReportDir:    getEnv("REPORT_DIR", "reports"),
		MetricsAddr:  getEnv("METRICS_ADDR", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
	}

	// Snowflake credentials are only required when it is the source.
	if cfg.Source == "snowflake" {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	// Postgres is only required when the audit trail is persisted.
	if cfg.AuditEnabled {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Source {
	case "snowflake":
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	case "csv":
		if c.CSVPath == "" {
			return errors.New("CSV_PATH is required for the csv source")
		}
	default:
		return errors.New("RECORD_SOURCE must be snowflake or csv")
	}

	if c.AuditEnabled && c.Postgres == nil {
		return errors.New("postgreSQL configuration is required when AUDIT_ENABLED is set")
	}

	if c.Workers < 0 {
		return errors.New("worker pool size cannot be negative")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
