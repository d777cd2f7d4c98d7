package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goodtune/screenbreak/internal/config"
	"github.com/goodtune/screenbreak/internal/feed"
	"github.com/goodtune/screenbreak/internal/notify"
	"github.com/goodtune/screenbreak/internal/platform"
	"github.com/goodtune/screenbreak/internal/storage"
	"github.com/goodtune/screenbreak/internal/storage/bolt"
	"github.com/goodtune/screenbreak/internal/storage/redis"
	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/rs/zerolog"
)

// app bundles the components shared by every command.
type app struct {
	cfg      *config.Config
	store    storage.SettingsStore
	logStore *usage.LogStore
	engine   *usage.Engine
	clock    usage.Clock
	logger   zerolog.Logger
}

// newApp opens storage and wires the evaluation engine.
func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	clock := usage.RealClock{Loc: cfg.Usage.Location()}

	logStore := usage.NewLogStore(store, cfg.Storage.SettingsKey, cfg.Usage.RetentionDays, clock, logger)

	matcher, err := newMatcher(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	feedClient, err := feed.New(feed.Config{
		URL:     cfg.Feed.URL,
		Timeout: config.ParseDuration(cfg.Feed.Timeout, 10*time.Second),
		Retries: cfg.Feed.Retries,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize feed: %w", err)
	}

	notifier, err := newNotifier(cfg.Notify, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	engine := usage.NewEngine(feedClient, logStore, matcher, notifier, clock, usage.EngineConfig{
		Lookback:          config.ParseDuration(cfg.Feed.Lookback, usage.DefaultLookback),
		Limit:             cfg.Feed.Limit,
		RenotifyInterval:  config.ParseDuration(cfg.Usage.RenotifyInterval, 30*time.Minute),
		NotificationTitle: cfg.Notify.Title,
	}, logger)

	return &app{
		cfg:      cfg,
		store:    store,
		logStore: logStore,
		engine:   engine,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Close releases the storage backend.
func (a *app) Close() error {
	return a.store.Close()
}

// sessionGap returns the configured session gap.
func (a *app) sessionGap() time.Duration {
	return config.ParseDuration(a.cfg.Usage.SessionGap, usage.DefaultSessionGap)
}

// newMatcher builds the platform table: built-in rules first, then the
// configured ones.
func newMatcher(cfg *config.Config) (*platform.Matcher, error) {
	rules := append([]platform.Rule{}, platform.DefaultRules...)
	for _, p := range cfg.Platforms {
		rules = append(rules, platform.Rule{Fragment: p.Fragment, Label: platform.Platform(p.Label)})
	}

	matcher, err := platform.NewMatcher(rules, cfg.Usage.MatchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build platform matcher: %w", err)
	}
	return matcher, nil
}

func newNotifier(cfg config.NotifyConfig, logger zerolog.Logger) (usage.Notifier, error) {
	if !cfg.Enabled {
		return notify.NewLog(logger), nil
	}

	n, err := notify.NewScreenpipe(notify.Config{
		URL:     cfg.URL,
		Timeout: config.ParseDuration(cfg.Timeout, 5*time.Second),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}
	return n, nil
}

// openStorage opens the configured settings store backend
func openStorage(cfg config.StorageConfig) (storage.SettingsStore, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = "bolt"
	}

	switch storageType {
	case "bolt":
		return bolt.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (must be 'bolt' or 'redis')", storageType)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// loadApp loads configuration and wires the application for one-shot
// commands.
func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return newApp(cfg, setupLogger(cfg.Logging))
}
