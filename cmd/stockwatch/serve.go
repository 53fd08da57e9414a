package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockwatch/internal/activity"
	"stockwatch/internal/api"
	"stockwatch/internal/checker"
	"stockwatch/internal/config"
	"stockwatch/internal/logging"
	"stockwatch/internal/metrics"
	"stockwatch/internal/monitor"
	"stockwatch/internal/notify"
	"stockwatch/internal/registry"
	"stockwatch/internal/state"
	"stockwatch/internal/urlutil"
)

func newServeCmd() *cobra.Command {
	var port string
	var start bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the management API and monitoring engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.HTTPPort = port
			}
			return run(cfg, start)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides PORT)")
	cmd.Flags().BoolVar(&start, "start", false, "Start monitoring immediately when targets exist")
	return cmd
}

func run(cfg *config.Config, autoStart bool) error {
	logger, closer := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer closer.Close()

	// Create a context that is canceled on OS signals like SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info().Str("driver", cfg.StoreDriver).Msg("opening target store")
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := registry.New(store, urlutil.PrefixAllowList(cfg.AllowedHosts...), logger)
	reg.Load(ctx)

	events := activity.New(cfg.ActivityCapacity, logger)
	chk := checker.New(checker.NewHTTPFetcher(cfg.UserAgent), checker.DefaultMarkers, cfg.PageTimeout, events, logger)

	notifier := notify.New(newTransport(cfg, logger), logger,
		notify.WithTimeout(cfg.NotifyTimeout),
		notify.WithRatePerMinute(cfg.NotifyRatePerMinute),
	)

	engine := monitor.New(monitor.Options{
		Registry: reg,
		States:   state.New(),
		Activity: events,
		Checker:  chk,
		Notifier: notifier,
		Interval: cfg.CheckInterval,
		Logger:   logger,
	})

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	router := api.NewRouter(engine, metrics.Handler(prometheus.DefaultGatherer), logger)
	server := api.NewServer(cfg.HTTPPort, router, logger)
	serveErr := server.Start()

	if autoStart {
		if err := engine.Start(); err != nil {
			logger.Warn().Err(err).Msg("monitoring not started")
		}
	}

	logger.Info().Str("port", cfg.HTTPPort).Int("targets", reg.Len()).Msg("application is running")

	// Block until a signal arrives or the listener fails.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	// Stop the engine first so no new checks start.
	if err := engine.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("monitoring loop shutdown")
	}
	if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http server shutdown error: %w", err)
	}
	// An empty registry may stem from an unreadable store; leave it as is.
	if reg.Len() > 0 {
		if err := reg.Save(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("final save failed")
		}
	}

	if runErr == nil {
		logger.Info().Msg("application shut down gracefully")
	}
	return runErr
}

// newTransport returns the Telegram transport when credentials are set.
func newTransport(cfg *config.Config, logger zerolog.Logger) notify.Transport {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
		logger.Warn().Msg("TELEGRAM_TOKEN or TELEGRAM_CHAT_ID not set, notifications disabled")
		return notify.Disabled{}
	}
	tg, err := notify.NewTelegram(notify.TelegramConfig{
		Token:   cfg.TelegramToken,
		ChatID:  cfg.TelegramChatID,
		APIURL:  cfg.TelegramAPIURL,
		Timeout: cfg.NotifyTimeout,
	})
	if err != nil {
		logger.Error().Err(err).Msg("telegram transport disabled")
		return notify.Disabled{}
	}
	return tg
}
