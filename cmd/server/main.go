// Command server runs the reconciliation HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ledgerline/reconcile-backend/internal/api"
	"github.com/ledgerline/reconcile-backend/internal/application/notify"
	"github.com/ledgerline/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerline/reconcile-backend/internal/domain/matching"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/config"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/logging"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/notifier"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configPath)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if dsn := cfg.Observability.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	logger := logging.NewLogger(cfg.Observability.Logging)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	channel, err := notifier.New(cfg.Notifications, logging.NewLoggerWithSystem(cfg.Observability.Logging, "notify"))
	if err != nil {
		return err
	}

	throttle := notify.NewThrottle(store, channel, notify.Settings{
		Enabled:            cfg.Notifications.Enabled,
		UnmatchedThreshold: cfg.Notifications.UnmatchedThreshold,
		Recipients:         cfg.Notifications.Recipients,
		ThrottleWindow:     cfg.Notifications.ThrottleWindow,
	}, logging.NewLoggerWithSystem(cfg.Observability.Logging, "notify"))

	orchestrator := reconcile.NewOrchestrator(
		store,
		matching.NewEngine(),
		throttle,
		logging.NewLoggerWithSystem(cfg.Observability.Logging, "reconcile"),
	)

	serverCfg := api.DefaultConfig()
	serverCfg.Address = cfg.Server.Address
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout

	server := api.NewServer(serverCfg, store, orchestrator, throttle,
		logging.NewLoggerWithSystem(cfg.Observability.Logging, "api"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			sentry.CaptureException(err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("received shutdown signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		sentry.CaptureException(err)
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
