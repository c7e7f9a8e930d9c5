// Package cli provides the initialization shared by cmd/registru,
// cmd/export-worker and cmd/registru-admin.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"registru/internal/backend"
	"registru/internal/config"
	"registru/internal/log"
	"registru/internal/sheets"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger installs the default logger for component using the level
// and format from the environment.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		cfg.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}

	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadConfig parses the environment and runs validate on the result.
func LoadConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg, err := LoadConfig(validate)
	if err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend builds the repository, publisher and registry for cfg.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.Backend, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).Open(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return b, nil
}

// OpenExportSink builds the spreadsheet mirror selected by EXPORT_SINK.
func OpenExportSink(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.ExportSink, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(log.ComponentSheets).Logger).OpenExportSink(ctx, bcfg)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
