package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantflow/quantflow/internal/ctxlog"
	"github.com/quantflow/quantflow/internal/flowstore/postgres"
	"github.com/quantflow/quantflow/internal/server"
)

// main starts the development stand-in backend.
func main() {
	addr := flag.String("addr", ":8000", "Listen address.")
	stepDelay := flag.Duration("step-delay", 150*time.Millisecond, "Pause between simulated stream events.")
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL enabling flow CRUD endpoints.")
	logLevel := flag.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flag.Parse()

	if err := run(*addr, *stepDelay, *databaseURL, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(addr string, stepDelay time.Duration, databaseURL, logLevel string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	cfg := server.Config{Addr: addr, StepDelay: stepDelay}
	if databaseURL != "" {
		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("connect flow database: %w", err)
		}
		defer pool.Close()
		store := postgres.New(pool)
		if err := store.CreateSchema(ctx); err != nil {
			return fmt.Errorf("create flow schema: %w", err)
		}
		cfg.Store = store
		logger.Info("Flow persistence enabled.")
	}

	srv := server.New(ctx, cfg)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("Shutting down.")
		srv.Shutdown()
	}()

	return srv.Listen(ctx)
}
