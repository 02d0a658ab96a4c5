package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/wordduel/internal/api"
	"github.com/mcoot/wordduel/internal/config"
	"github.com/mcoot/wordduel/internal/factory"
	"github.com/mcoot/wordduel/internal/services/audit"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(context.Background(), factory.FromConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Load dictionary. The server still starts without one; health reports
	// unavailable and every word is rejected until a restart.
	if err := app.DictionaryService.LoadWithFallback(context.Background(), cfg.DictionaryPath, cfg.DictionaryFallbackPath); err != nil {
		logger.Warn("could not load dictionary", slog.String("error", err.Error()))
	}

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(app.Handler(cfg.AllowedOrigins), serverConfig, logger)

	// Hijacked websocket connections are not tracked by http.Server
	server.OnShutdown(app.Hub.Close)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("audit_backend", cfg.AuditBackend),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), audit.DefaultTimeout)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		logger.Error("failed to flush audit records", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
