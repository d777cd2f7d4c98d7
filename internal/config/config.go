package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Feed      FeedConfig       `mapstructure:"feed"`
	Notify    NotifyConfig     `mapstructure:"notify"`
	Usage     UsageConfig      `mapstructure:"usage_tracking"`
	Platforms []PlatformConfig `mapstructure:"platforms"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig defines server ports and addresses
type ServerConfig struct {
	BindAddress     string   `mapstructure:"bind_address"`
	APIPort         int      `mapstructure:"api_port"`
	MetricsPort     int      `mapstructure:"metrics_port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimit       int      `mapstructure:"rate_limit"`
	RateLimitWindow string   `mapstructure:"rate_limit_window"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type        string      `mapstructure:"type"`
	Path        string      `mapstructure:"path"`
	SettingsKey string      `mapstructure:"settings_key"`
	Redis       RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

// FeedConfig defines the Screenpipe observation feed
type FeedConfig struct {
	URL      string `mapstructure:"url"`
	Lookback string `mapstructure:"lookback"`
	Limit    int    `mapstructure:"limit"`
	Timeout  string `mapstructure:"timeout"`
	Retries  int    `mapstructure:"retries"`
}

// NotifyConfig defines the desktop notification endpoint
type NotifyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Timeout string `mapstructure:"timeout"`
	Title   string `mapstructure:"title"`
}

// UsageConfig defines usage tracking settings
type UsageConfig struct {
	PollInterval     string `mapstructure:"poll_interval"`
	CycleTimeout     string `mapstructure:"cycle_timeout"`
	SessionGap       string `mapstructure:"session_gap"`
	RetentionDays    int    `mapstructure:"retention_days"`
	RenotifyInterval string `mapstructure:"renotify_interval"`
	Timezone         string `mapstructure:"timezone"`
	MatchCacheSize   int    `mapstructure:"match_cache_size"`
}

// PlatformConfig adds a tracked platform after the built-in ones
type PlatformConfig struct {
	Fragment string `mapstructure:"fragment"`
	Label    string `mapstructure:"label"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Configure viper
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("SCREENBREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Defaults returns the configuration produced by the defaults alone.
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)

	return &cfg
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind_address", "127.0.0.1")
	v.SetDefault("server.api_port", 8765)
	v.SetDefault("server.metrics_port", 9765)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.rate_limit_window", "1m")

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/screenbreak/screenbreak.bolt")
	v.SetDefault("storage.settings_key", "screenbreak")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 4)
	v.SetDefault("storage.redis.min_idle_conns", 1)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")
	v.SetDefault("storage.redis.key_prefix", "screenbreak")

	// Feed defaults
	v.SetDefault("feed.url", "http://localhost:3030")
	v.SetDefault("feed.lookback", "5m")
	v.SetDefault("feed.limit", 100)
	v.SetDefault("feed.timeout", "10s")
	v.SetDefault("feed.retries", 2)

	// Notification defaults
	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.url", "http://localhost:11435/notify")
	v.SetDefault("notify.timeout", "5s")
	v.SetDefault("notify.title", "ScreenBreak Alert")

	// Usage tracking defaults
	v.SetDefault("usage_tracking.poll_interval", "1m")
	v.SetDefault("usage_tracking.cycle_timeout", "30s")
	v.SetDefault("usage_tracking.session_gap", "5m")
	v.SetDefault("usage_tracking.retention_days", 7)
	v.SetDefault("usage_tracking.renotify_interval", "30m")
	v.SetDefault("usage_tracking.timezone", "Local")
	v.SetDefault("usage_tracking.match_cache_size", 512)

	v.SetDefault("platforms", []map[string]string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// KnownKeys lists every configuration key the application understands.
func KnownKeys() map[string]bool {
	v := viper.New()
	SetDefaults(v)

	keys := make(map[string]bool)
	for _, key := range v.AllKeys() {
		keys[key] = true
	}
	return keys
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.APIPort <= 0 || cfg.Server.APIPort > 65535 {
		return fmt.Errorf("invalid API port: %d", cfg.Server.APIPort)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	durations := map[string]string{
		"feed.lookback":                    cfg.Feed.Lookback,
		"feed.timeout":                     cfg.Feed.Timeout,
		"notify.timeout":                   cfg.Notify.Timeout,
		"usage_tracking.poll_interval":     cfg.Usage.PollInterval,
		"usage_tracking.cycle_timeout":     cfg.Usage.CycleTimeout,
		"usage_tracking.session_gap":       cfg.Usage.SessionGap,
		"usage_tracking.renotify_interval": cfg.Usage.RenotifyInterval,
	}
	for key, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	if cfg.Feed.URL == "" {
		return fmt.Errorf("feed url is required")
	}
	if cfg.Feed.Limit <= 0 {
		return fmt.Errorf("feed limit must be positive")
	}
	if cfg.Notify.Enabled && cfg.Notify.URL == "" {
		return fmt.Errorf("notify url is required when notifications are enabled")
	}

	if _, err := time.LoadLocation(cfg.Usage.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Usage.Timezone, err)
	}
	if cfg.Usage.RetentionDays < 1 {
		cfg.Usage.RetentionDays = 1
	}

	for i, p := range cfg.Platforms {
		if strings.TrimSpace(p.Fragment) == "" {
			return fmt.Errorf("platforms[%d]: fragment is required", i)
		}
		if strings.TrimSpace(p.Label) == "" {
			return fmt.Errorf("platforms[%d]: label is required", i)
		}
	}

	if cfg.Storage.SettingsKey == "" {
		return fmt.Errorf("storage settings_key is required")
	}

	switch cfg.Storage.Type {
	case "", "bolt":
		cfg.Storage.Type = "bolt"
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
		// Ensure storage directory exists
		storageDir := filepath.Dir(cfg.Storage.Path)
		if err := os.MkdirAll(storageDir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s (must be 'bolt' or 'redis')", cfg.Storage.Type)
	}

	return nil
}

// Location resolves the configured timezone.
func (c UsageConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ParseDuration parses a duration string with a fallback
func ParseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
