package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/smarttools/internal/config"
	"github.com/JonMunkholm/smarttools/internal/core"
	"github.com/JonMunkholm/smarttools/internal/logging"
	"github.com/JonMunkholm/smarttools/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_file_size", humanize.Bytes(uint64(cfg.Upload.MaxFileSize)),
		"upload_max_concurrent", cfg.Upload.MaxConcurrentJobs,
		"session_max", cfg.Session.MaxSessions,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	service := core.NewService(core.ServiceConfig{
		MaxConcurrentJobs: cfg.Upload.MaxConcurrentJobs,
		MaxWait:           cfg.Upload.MaxWaitTime,
		ResultRetention:   cfg.Upload.ResultRetention,
		SessionCapacity:   cfg.Session.MaxSessions,
		SessionTTL:        cfg.Session.TTL,
		HistorySize:       cfg.Session.HistorySize,
	})

	// Log registered tools
	slog.Info("tools registered", "count", core.OperationCount())
	for _, def := range core.All() {
		slog.Debug("tool", "op", def.Kind.Key(), "label", def.Label, "extensions", def.Extensions)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running jobs before closing connections
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for jobs to complete", "active", status.Active)
			if err := service.WaitForJobs(shutdownCtx); err != nil {
				slog.Warn("jobs did not complete in time", "error", err)
			} else {
				slog.Info("all jobs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
