package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/screenbreak/internal/api"
	"github.com/goodtune/screenbreak/internal/config"
	"github.com/goodtune/screenbreak/internal/metrics"
	"github.com/goodtune/screenbreak/internal/systemd"
	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start ScreenBreak server",
	Long:  `Start the ScreenBreak server: the usage poller, the JSON API and the metrics endpoint.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting ScreenBreak")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	} else if systemd.IsSystemdService() {
		logger.Info().Msg("Running as systemd service")
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("settings_key", cfg.Storage.SettingsKey).
		Int("retention_days", cfg.Usage.RetentionDays).
		Msg("Storage initialized")

	// Initialize Poller
	poller := usage.NewPoller(
		a.engine,
		config.ParseDuration(cfg.Usage.PollInterval, usage.DefaultPollInterval),
		config.ParseDuration(cfg.Usage.CycleTimeout, 30*time.Second),
		logger,
	)
	poller.Start()

	// Initialize API Server
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort)
	apiServer := api.NewServer(api.Config{
		ListenAddr:      apiAddr,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitWindow: config.ParseDuration(cfg.Server.RateLimitWindow, time.Minute),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		SessionGap:      a.sessionGap(),
		CycleTimeout:    config.ParseDuration(cfg.Usage.CycleTimeout, 30*time.Second),
	}, a.engine, a.logStore, a.clock, logger)

	if sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}

	if err := apiServer.Start(); err != nil {
		poller.Stop()
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// Initialize Metrics Server
	var metricsServer *metrics.Server
	if cfg.Server.MetricsPort > 0 || sdListeners.Metrics != nil {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
		metricsServer = metrics.NewServer(metricsAddr, logger)
		if sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}
		if err := metricsServer.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start Metrics Server")
			metricsServer = nil
		}
	}

	logger.Info().Msg("ScreenBreak startup complete")
	logger.Info().Msgf("API: http://%s", apiAddr)
	if metricsServer != nil {
		logger.Info().Msgf("Metrics: http://%s:%d/metrics", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	}

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd")
	}

	stopWatchdog := startWatchdog(logger)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")
	close(stopWatchdog)

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd")
	}

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API Server")
	}

	poller.Stop()

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping Metrics Server")
		}
	}

	logger.Info().Msg("ScreenBreak stopped")
	return nil
}

// startWatchdog pings the systemd watchdog until the returned channel is
// closed. It does nothing when the unit has no watchdog.
func startWatchdog(logger zerolog.Logger) chan struct{} {
	stop := make(chan struct{})

	interval := systemd.WatchdogInterval()
	if interval <= 0 {
		return stop
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := systemd.NotifyWatchdog(); err != nil {
					logger.Warn().Err(err).Msg("Failed to ping systemd watchdog")
				}
			case <-stop:
				return
			}
		}
	}()

	logger.Debug().Dur("interval", interval).Msg("Systemd watchdog enabled")
	return stop
}
