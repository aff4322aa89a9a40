// Package config loads server configuration from config.yaml, a .env file
// and RMA_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/innopark/rma-engine/rma"
)

// Config represents application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Report    ReportConfig    `mapstructure:"report"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig represents the HTTP listener
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig represents the SQLite store
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // ":memory:" for an in-memory database
}

// LogConfig represents logger output
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // empty logs to stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ReportConfig bounds the reconciliation fan-out
type ReportConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// SchedulerConfig represents the holiday seeding loop
type SchedulerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	YearsAhead    int           `mapstructure:"years_ahead"`
	Cantons       []string      `mapstructure:"cantons"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetDefault("database.path", "rma.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("report.concurrency", 8)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.check_interval", 24*time.Hour)
	v.SetDefault("scheduler.years_ahead", 1)
	v.SetDefault("scheduler.cantons", []string{"FR", "VD", "GE"})
}

// Load reads configuration. A missing config file is not an error when
// configPath is empty; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rma-engine")
	}

	v.SetEnvPrefix("RMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got '%s'", c.Log.Level)
	}
	if c.Report.Concurrency <= 0 {
		return fmt.Errorf("report.concurrency must be positive")
	}
	if c.Scheduler.Enabled && c.Scheduler.CheckInterval <= 0 {
		return fmt.Errorf("scheduler.check_interval must be positive")
	}
	if c.Scheduler.YearsAhead < 0 {
		return fmt.Errorf("scheduler.years_ahead must not be negative")
	}
	for _, code := range c.Scheduler.Cantons {
		if !rma.Canton(code).Valid() {
			return fmt.Errorf("scheduler.cantons: unknown canton '%s'", code)
		}
	}
	return nil
}

// SchedulerCantons returns the configured cantons as typed values.
func (c *Config) SchedulerCantons() []rma.Canton {
	out := make([]rma.Canton, len(c.Scheduler.Cantons))
	for i, code := range c.Scheduler.Cantons {
		out[i] = rma.Canton(code)
	}
	return out
}
