package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents application configuration
type Config struct {
	Location LocationConfig `mapstructure:"location"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Log      LogConfig      `mapstructure:"log"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LocationConfig represents the default observer location.
// Name is looked up in the gazetteer; explicit coordinates override it.
type LocationConfig struct {
	Name      string  `mapstructure:"name"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Timezone  string  `mapstructure:"timezone"`
}

// LedgerConfig represents month-start feed and cache configuration
type LedgerConfig struct {
	FeedURL   string `mapstructure:"feed_url"`
	CacheFile string `mapstructure:"cache_file"`
	MaxAge    string `mapstructure:"max_age"`
	Timeout   string `mapstructure:"timeout"`
	Retries   int    `mapstructure:"retries"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"` // empty logs to stderr
	Level string `mapstructure:"level"`
}

// DaemonConfig represents watch mode configuration
type DaemonConfig struct {
	CheckInterval string `mapstructure:"check_interval"`
}

// ServerConfig represents HTTP API configuration
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// HasCoordinates reports whether explicit coordinates were configured
func (l *LocationConfig) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

// Load loads configuration from file. Without an explicit path a missing
// config file is not an error and defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.aviv")
		v.AddConfigPath("/etc/aviv")
	}

	// Read environment variables, e.g. AVIV_LEDGER_FEED_URL
	v.SetEnvPrefix("aviv")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default for AutomaticEnv to reach it in Unmarshal
	v.SetDefault("location.name", "Jerusalem")
	v.SetDefault("location.latitude", 0.0)
	v.SetDefault("location.longitude", 0.0)
	v.SetDefault("location.timezone", "")
	v.SetDefault("ledger.feed_url", "")
	v.SetDefault("ledger.cache_file", "aviv-ledger.db")
	v.SetDefault("ledger.max_age", "24h")
	v.SetDefault("ledger.timeout", "10s")
	v.SetDefault("ledger.retries", 3)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("daemon.check_interval", "5m")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate Location config
	if c.Location.Name == "" && !c.Location.HasCoordinates() {
		return fmt.Errorf("location.name or location coordinates are required")
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("location.latitude must be between -90 and 90")
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("location.longitude must be between -180 and 180")
	}
	if c.Location.HasCoordinates() && c.Location.Timezone == "" {
		return fmt.Errorf("location.timezone is required with explicit coordinates")
	}
	if c.Location.Timezone != "" {
		if _, err := time.LoadLocation(c.Location.Timezone); err != nil {
			return fmt.Errorf("location.timezone %q is not a known time zone", c.Location.Timezone)
		}
	}

	// Validate Ledger config
	if c.Ledger.Retries < 1 || c.Ledger.Retries > 3 {
		return fmt.Errorf("ledger.retries must be between 1 and 3")
	}
	if c.Ledger.FeedURL != "" && !strings.HasPrefix(c.Ledger.FeedURL, "http://") && !strings.HasPrefix(c.Ledger.FeedURL, "https://") {
		return fmt.Errorf("ledger.feed_url must be an http(s) URL, got '%s'", c.Ledger.FeedURL)
	}

	// Validate Log config
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got '%s'", c.Log.Level)
	}

	return nil
}

// GetMaxAge returns how long a cached ledger stays fresh
func (c *LedgerConfig) GetMaxAge() time.Duration {
	return parseDuration(c.MaxAge, 24*time.Hour)
}

// GetTimeout returns the feed request timeout
func (c *LedgerConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetCheckInterval returns daemon check interval duration
func (c *DaemonConfig) GetCheckInterval() time.Duration {
	return parseDuration(c.CheckInterval, 5*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	duration, err := time.ParseDuration(s)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Ledger.FeedURL = os.ExpandEnv(c.Ledger.FeedURL)
	c.Ledger.CacheFile = os.ExpandEnv(c.Ledger.CacheFile)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
