package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/screenbreak/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	validateDump bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the ScreenBreak configuration file for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump full configuration with non-default values highlighted")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	// Check for unknown keys (always, not just with --dump)
	unknownKeys, err := findUnknownKeys(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "⚠️  Warning: Could not check for unknown keys: %v\n", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "✅ Configuration is valid: %s\n", configPath)

	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		fmt.Fprintln(os.Stdout)
		_, _ = red.Fprintf(os.Stdout, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(os.Stdout, "   - %s\n", key)
		}
		fmt.Fprintln(os.Stdout, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	if validateDump {
		_, _ = fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
		_, _ = fmt.Fprintln(os.Stdout, "FULL CONFIGURATION (values different from defaults are highlighted)")
		_, _ = fmt.Fprintln(os.Stdout, strings.Repeat("=", 80))

		dumpConfig(os.Stdout, cfg, config.Defaults(), unknownKeys)
	}

	return nil
}

// findUnknownKeys loads the config file and checks for unknown keys
func findUnknownKeys(configPath string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unknownKeysIn(v.AllKeys(), config.KnownKeys()), nil
}

// unknownKeysIn returns the keys not present in known, sorted. Entries of
// list-valued keys such as platforms are accepted.
func unknownKeysIn(keys []string, known map[string]bool) []string {
	unknown := []string{}
	for _, key := range keys {
		if known[key] {
			continue
		}
		if prefix, _, ok := strings.Cut(key, "."); ok && known[prefix] {
			continue
		}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)
	return unknown
}

// dumpConfig dumps configuration with color highlighting for non-default values
func dumpConfig(w io.Writer, cfg, defaultCfg *config.Config, unknownKeys []string) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	field := func(name string, value, defaultValue interface{}) {
		dumpField(w, name, value, defaultValue, yellow, green)
	}

	// Server
	_, _ = cyan.Fprintln(w, "\n[server]")
	field("  bind_address", cfg.Server.BindAddress, defaultCfg.Server.BindAddress)
	field("  api_port", cfg.Server.APIPort, defaultCfg.Server.APIPort)
	field("  metrics_port", cfg.Server.MetricsPort, defaultCfg.Server.MetricsPort)
	field("  allowed_origins", cfg.Server.AllowedOrigins, defaultCfg.Server.AllowedOrigins)
	field("  rate_limit", cfg.Server.RateLimit, defaultCfg.Server.RateLimit)
	field("  rate_limit_window", cfg.Server.RateLimitWindow, defaultCfg.Server.RateLimitWindow)

	// Storage
	_, _ = cyan.Fprintln(w, "\n[storage]")
	field("  type", cfg.Storage.Type, defaultCfg.Storage.Type)
	field("  path", cfg.Storage.Path, defaultCfg.Storage.Path)
	field("  settings_key", cfg.Storage.SettingsKey, defaultCfg.Storage.SettingsKey)
	_, _ = cyan.Fprintln(w, "  [storage.redis]")
	field("    host", cfg.Storage.Redis.Host, defaultCfg.Storage.Redis.Host)
	field("    port", cfg.Storage.Redis.Port, defaultCfg.Storage.Redis.Port)
	field("    password", redactPassword(cfg.Storage.Redis.Password), redactPassword(defaultCfg.Storage.Redis.Password))
	field("    db", cfg.Storage.Redis.DB, defaultCfg.Storage.Redis.DB)
	field("    pool_size", cfg.Storage.Redis.PoolSize, defaultCfg.Storage.Redis.PoolSize)
	field("    min_idle_conns", cfg.Storage.Redis.MinIdleConns, defaultCfg.Storage.Redis.MinIdleConns)
	field("    dial_timeout", cfg.Storage.Redis.DialTimeout, defaultCfg.Storage.Redis.DialTimeout)
	field("    read_timeout", cfg.Storage.Redis.ReadTimeout, defaultCfg.Storage.Redis.ReadTimeout)
	field("    write_timeout", cfg.Storage.Redis.WriteTimeout, defaultCfg.Storage.Redis.WriteTimeout)
	field("    key_prefix", cfg.Storage.Redis.KeyPrefix, defaultCfg.Storage.Redis.KeyPrefix)

	// Feed
	_, _ = cyan.Fprintln(w, "\n[feed]")
	field("  url", cfg.Feed.URL, defaultCfg.Feed.URL)
	field("  lookback", cfg.Feed.Lookback, defaultCfg.Feed.Lookback)
	field("  limit", cfg.Feed.Limit, defaultCfg.Feed.Limit)
	field("  timeout", cfg.Feed.Timeout, defaultCfg.Feed.Timeout)
	field("  retries", cfg.Feed.Retries, defaultCfg.Feed.Retries)

	// Notify
	_, _ = cyan.Fprintln(w, "\n[notify]")
	field("  enabled", cfg.Notify.Enabled, defaultCfg.Notify.Enabled)
	field("  url", cfg.Notify.URL, defaultCfg.Notify.URL)
	field("  timeout", cfg.Notify.Timeout, defaultCfg.Notify.Timeout)
	field("  title", cfg.Notify.Title, defaultCfg.Notify.Title)

	// Usage
	_, _ = cyan.Fprintln(w, "\n[usage_tracking]")
	field("  poll_interval", cfg.Usage.PollInterval, defaultCfg.Usage.PollInterval)
	field("  cycle_timeout", cfg.Usage.CycleTimeout, defaultCfg.Usage.CycleTimeout)
	field("  session_gap", cfg.Usage.SessionGap, defaultCfg.Usage.SessionGap)
	field("  retention_days", cfg.Usage.RetentionDays, defaultCfg.Usage.RetentionDays)
	field("  renotify_interval", cfg.Usage.RenotifyInterval, defaultCfg.Usage.RenotifyInterval)
	field("  timezone", cfg.Usage.Timezone, defaultCfg.Usage.Timezone)
	field("  match_cache_size", cfg.Usage.MatchCacheSize, defaultCfg.Usage.MatchCacheSize)

	// Platforms
	_, _ = cyan.Fprintln(w, "\n[platforms]")
	if len(cfg.Platforms) == 0 {
		_, _ = green.Fprintln(w, "  (built-in only)")
	}
	for _, p := range cfg.Platforms {
		_, _ = yellow.Fprintf(w, "  %s = %s\n", p.Fragment, p.Label)
	}

	// Logging
	_, _ = cyan.Fprintln(w, "\n[logging]")
	field("  level", cfg.Logging.Level, defaultCfg.Logging.Level)
	field("  format", cfg.Logging.Format, defaultCfg.Logging.Format)

	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		_, _ = cyan.Fprintln(w, "\n[UNKNOWN KEYS - These will be ignored!]")
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(w, "  %s = (unknown key - check for typos)\n", key)
		}
	}

	_, _ = fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
}

// dumpField prints a field with color if it differs from default
func dumpField(w io.Writer, name string, value, defaultValue interface{}, modifiedColor, defaultColor *color.Color) {
	if reflect.DeepEqual(value, defaultValue) {
		_, _ = defaultColor.Fprintf(w, "%s = %v\n", name, value)
		return
	}
	_, _ = modifiedColor.Fprintf(w, "%s = %v  (default: %v)\n", name, value, defaultValue)
}

// redactPassword hides non-empty passwords
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "********"
}
