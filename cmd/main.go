// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/calendar"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/config"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/database"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/directory"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/handler"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/notify"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/render"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/repository"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/retry"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/search"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/service"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/telemetry"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/worker"
)

const serviceName = "lnd-training-events"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// ── 1. Connect to PostgreSQL and migrate ─────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	sqlDB := database.SQLDB(pool)
	defer sqlDB.Close()
	if err := database.Migrate(ctx, sqlDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	// ── 2. Collaborators ─────────────────────────────────────────────────
	events := repository.NewEventRepository(pool)

	dir, err := directory.Open(sqlDB)
	if err != nil {
		return err
	}

	cal, err := calendar.New(ctx, calendar.Config{
		CredentialsFile: cfg.Calendar.CredentialsFile,
		CalendarID:      cfg.Calendar.CalendarID,
		TimeZone:        cfg.Calendar.TimeZone,
	}, dir, logger)
	if err != nil {
		return fmt.Errorf("calendar: %w", err)
	}

	var team notify.TeamSender
	if cfg.Telegram.Token != "" {
		channel, err := notify.NewTeamChannel(cfg.Telegram.Token, cfg.Telegram.TeamChats)
		if err != nil {
			return err
		}
		team = channel
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, team cards are disabled")
	}
	mailer := notify.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	notifier := notify.NewGateway(mailer, team, logger)

	rdb, err := search.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()
	indexer := search.NewIndexer(rdb, events, logger)

	// ── 3. Services ──────────────────────────────────────────────────────
	collab := service.Collaborators{
		Store:    events,
		Calendar: cal,
		Index:    indexer,
		Notifier: notifier,
		Groups:   dir,
		Users:    dir,
	}
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithRenderer(render.New(cfg.AppBaseURL)),
		service.WithRetryPolicy(retry.Policy{
			MaxAttempts: cfg.RetryMaxAttempts,
			Step:        cfg.RetryStep,
			Retriable:   repository.IsConflict,
		}),
	}
	eventSvc := service.NewEventService(collab, opts...)
	regSvc := service.NewRegistrationService(collab, opts...)

	// ── 4. Background workers ────────────────────────────────────────────
	go indexer.Run(ctx)
	go worker.NewReminderSweeper(events, eventSvc, logger).Run(ctx, cfg.ReminderInterval)

	// ── 5. Start server with graceful shutdown ───────────────────────────
	h := handler.NewEventHandler(eventSvc, regSvc, indexer, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.NewRouter(h, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
