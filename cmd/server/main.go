package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/api"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/chatwork"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/config"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/engine"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/handlers"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/notify"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/scheduler"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/source"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens first.
func run() int {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		logger = logger.Level(level)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cw *chatwork.Client
	if cfg.ChatworkToken != "" {
		cw = chatwork.NewClient(cfg.ChatworkBaseURL, cfg.ChatworkToken)
	}

	// Message source
	var (
		src        source.Source
		redisCheck handlers.Pinger
	)
	switch cfg.MessageSource {
	case config.SourceRedis:
		rs, err := source.NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rs.Close()
		logger.Info().Msg("connected to Redis")
		src, redisCheck = rs, rs
	default:
		me, err := cw.Me(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("chatwork connection check failed")
		}
		logger.Info().Int64("account_id", me.ID).Str("name", me.Name).Msg("connected to Chatwork")
		src = source.NewChatwork(cw)
	}

	// Alert delivery
	var notifier notify.Notifier
	switch cfg.AlertDelivery {
	case config.DeliveryChatwork:
		notifier = notify.NewChatwork(cw)
	case config.DeliveryNATS:
		nc, err := notify.Connect(cfg.NATSURL, "chatwork-ai-manager")
		if err != nil {
			logger.Fatal().Err(err).Msg("nats connection failed")
		}
		defer nc.Drain()
		logger.Info().Str("subject", cfg.NATSSubject).Msg("connected to NATS")
		notifier = notify.NewNATS(nc, cfg.NATSSubject)
	default:
		notifier = notify.NewLog(logger)
	}

	sched := scheduler.New(scheduler.Config{
		HighThreshold:       cfg.HighPriorityThreshold,
		NormalThreshold:     cfg.NormalPriorityThreshold,
		LowThreshold:        cfg.LowPriorityThreshold,
		EscalationIntervals: cfg.EscalationIntervals,
		MaxEscalationLevel:  cfg.MaxEscalationLevel,
		Retention:           cfg.AlertRetention,
	}, notifier, logger)

	eng := engine.New(engine.Config{
		Rooms:              cfg.MonitoredRooms,
		PollInterval:       cfg.MonitoringInterval,
		ErrorInterval:      cfg.ErrorRetryInterval,
		SweepInterval:      cfg.AlertCheckInterval,
		CleanupInterval:    cfg.CleanupInterval,
		ProcessedRetention: cfg.ProcessedRetention,
	}, src, sched, logger)

	// Create router
	var chat handlers.ChatClient
	if cw != nil {
		chat = cw
	}
	router := api.NewRouter(logger, handlers.NewHandler(eng, redisCheck, notifier.Name(), chat))

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("source", src.Name()).
			Str("notifier", notifier.Name()).
			Msg("starting chatwork-ai-manager")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	runErr := eng.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error().Err(runErr).Msg("monitoring stopped with error")
	}

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")

	if errors.Is(runErr, source.ErrUnauthorized) {
		return 1
	}
	return 0
}
