package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"air-quality-platform/pkg/database"
)

// Dataset sources
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config is the complete application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Dataset   DatasetConfig
	Logging   LoggingConfig
	Analytics AnalyticsConfig
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host            string
	Port            int           `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// DatabaseConfig configures the PostgreSQL connection
type DatabaseConfig struct {
	Host            string `validate:"required"`
	Port            int    `validate:"min=1,max=65535"`
	User            string `validate:"required"`
	Password        string
	Database        string `validate:"required"`
	SSLMode         string `validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns    int    `validate:"min=1"`
	MaxIdleConns    int    `validate:"min=0"`
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DatasetConfig selects where the observation table is loaded from at startup
type DatasetConfig struct {
	Source    string `validate:"oneof=csv postgres"`
	Path      string `validate:"required_if=Source csv"`
	BatchSize int    `validate:"min=1"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// AnalyticsConfig holds the defaults of the dashboard computations
type AnalyticsConfig struct {
	PollutionThreshold float64 `validate:"gte=0"`
	HistogramBins      int     `validate:"min=0,max=1000"`
}

// LoadConfig reads configuration from the environment, after loading an
// optional .env file from the working directory.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var err error
	cfg := &Config{}

	cfg.Server.Host = getenvDefault("SERVER_HOST", "0.0.0.0")
	if cfg.Server.Port, err = getenvInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getenvDuration("SERVER_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getenvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getenvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = getenvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.Database.Host = getenvDefault("DB_HOST", "localhost")
	if cfg.Database.Port, err = getenvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	cfg.Database.User = getenvDefault("DB_USER", "airquality")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Database = getenvDefault("DB_NAME", "air_quality")
	cfg.Database.SSLMode = getenvDefault("DB_SSLMODE", "disable")
	if cfg.Database.MaxOpenConns, err = getenvInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns, err = getenvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxLifetime, err = getenvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxIdleTime, err = getenvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute); err != nil {
		return nil, err
	}

	cfg.Dataset.Source = getenvDefault("DATASET_SOURCE", SourceCSV)
	cfg.Dataset.Path = getenvDefault("DATASET_PATH", "main_data.csv")
	if cfg.Dataset.BatchSize, err = getenvInt("DATASET_BATCH_SIZE", 1000); err != nil {
		return nil, err
	}

	cfg.Logging.Level = getenvDefault("LOG_LEVEL", "info")

	if cfg.Analytics.PollutionThreshold, err = getenvFloat("POLLUTION_THRESHOLD", 35); err != nil {
		return nil, err
	}
	if cfg.Analytics.HistogramBins, err = getenvInt("HISTOGRAM_BINS", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("invalid configuration: DB_MAX_IDLE_CONNS (%d) exceeds DB_MAX_OPEN_CONNS (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	return nil
}

// UsesDatabase reports whether the server needs a PostgreSQL connection
func (c *Config) UsesDatabase() bool {
	return c.Dataset.Source == SourcePostgres
}

// Postgres converts the database section into connection settings
func (d DatabaseConfig) Postgres() *database.Config {
	return &database.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
