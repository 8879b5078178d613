// Package cli holds the start-up steps shared by cmd/fintrack and
// cmd/fintrack-worker.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/log"
)

// LoadEnvFile loads .env files for local development. Missing files are
// fine; a present but unreadable file is an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SetupLogger builds the text logger for level and installs it as the slog
// default.
func SetupLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger, nil
}

// Bootstrap loads .env and the configuration, checks it with validate and
// sets up logging. Any failure exits the process.
func Bootstrap(validate func(*config.Config) error) (*config.Config, *log.Logger) {
	boot := log.New(log.DefaultConfig())

	if err := LoadEnvFile(); err != nil {
		boot.Error("Failed to load .env file", log.FieldError, err.Error())
		os.Exit(1)
	}

	cfg := config.Load()
	if err := validate(cfg); err != nil {
		boot.Error("Configuration validation failed",
			log.FieldOperation, log.OpStartup,
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err.Error())
		os.Exit(1)
	}

	logger, err := SetupLogger(cfg.LogLevel)
	if err != nil {
		boot.Error("Invalid log level",
			log.FieldOperation, log.OpStartup,
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
