// Package app wires the flow source, state store, run client, and report
// renderers into one command execution.
package app

import (
	"io"
	"log/slog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	cfg    *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger. outW receives the
// rendered report; logs go to errW.
func NewApp(outW, errW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured successfully.")
	return &App{outW: outW, errW: errW, logger: logger, cfg: cfg}
}

// Logger returns the app's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
