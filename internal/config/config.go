// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const defaultPrivateKey = "88888888888888888888888888888888"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	// Login
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TTLMs    int64  `mapstructure:"ttl"`

	// Comma separated list of origins, or "*"
	AllowOrigin string `mapstructure:"alloworigin"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings, 0 keeps records forever
	RecordRetentionDays int `mapstructure:"recordretentiondays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "ackee")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", defaultPrivateKey)
		v.SetDefault("ttl", 3600000)
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "public")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("jobintervalseconds", 300)
		v.SetDefault("recordretentiondays", 0)

		v.BindEnv("appname", "ACKEE_APP_NAME")
		v.BindEnv("appport", "ACKEE_PORT")
		v.BindEnv("environment", "ACKEE_ENV")
		v.BindEnv("loglevel", "ACKEE_LOG_LEVEL")
		v.BindEnv("privatekey", "ACKEE_PRIVATE_KEY")
		v.BindEnv("username", "ACKEE_USERNAME")
		v.BindEnv("password", "ACKEE_PASSWORD")
		v.BindEnv("ttl", "ACKEE_TTL")
		v.BindEnv("alloworigin", "ACKEE_ALLOW_ORIGIN")
		v.BindEnv("storagepath", "ACKEE_STORAGE_PATH")
		v.BindEnv("publicdir", "ACKEE_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "ACKEE_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "ACKEE_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "ACKEE_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "ACKEE_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "ACKEE_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "ACKEE_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "ACKEE_DB_MAX_IDLE_CONNS")
		v.BindEnv("jobintervalseconds", "ACKEE_JOB_INTERVAL_SECONDS")
		v.BindEnv("recordretentiondays", "ACKEE_RECORD_RETENTION_DAYS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}
	if c.IsProduction() && c.PrivateKey == defaultPrivateKey {
		return fmt.Errorf("production requires a unique ACKEE_PRIVATE_KEY (cannot use default)")
	}
	if c.IsProduction() && (c.Username == "" || c.Password == "") {
		return fmt.Errorf("production requires ACKEE_USERNAME and ACKEE_PASSWORD")
	}
	if c.TTLMs <= 0 {
		return fmt.Errorf("invalid token ttl: %d", c.TTLMs)
	}
	if c.JobIntervalSeconds <= 0 {
		return fmt.Errorf("invalid job interval: %d", c.JobIntervalSeconds)
	}
	if c.RecordRetentionDays < 0 {
		return fmt.Errorf("invalid record retention: %d", c.RecordRetentionDays)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// TokenTTL is how long a token stays valid after its last use.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}

// AllowedOrigins splits AllowOrigin. A nil result means CORS headers are not sent.
func (c *Config) AllowedOrigins() []string {
	if strings.TrimSpace(c.AllowOrigin) == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(c.AllowOrigin, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetSessionTimeout returns the token TTL in seconds.
func (c *Config) GetSessionTimeout() int {
	return int(c.TokenTTL() / time.Second)
}

// GetLoginSessionTimeout returns the token TTL in seconds.
func (c *Config) GetLoginSessionTimeout() int {
	return c.GetSessionTimeout()
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10 (the overview runs its statistics in parallel)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
