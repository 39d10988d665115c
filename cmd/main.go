package main

import (
	"context"
	"errors"
	"fmt"
	logByDefault "log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plugfox/addonhub/internal/auth"
	config "github.com/plugfox/addonhub/internal/config"
	"github.com/plugfox/addonhub/internal/email"
	"github.com/plugfox/addonhub/internal/httpclient"
	log "github.com/plugfox/addonhub/internal/log"
	"github.com/plugfox/addonhub/internal/metrics"
	"github.com/plugfox/addonhub/internal/moderation"
	"github.com/plugfox/addonhub/internal/notify"
	"github.com/plugfox/addonhub/internal/server"
	storage "github.com/plugfox/addonhub/internal/storage"
	"github.com/plugfox/addonhub/internal/triage"

	// This controls the maxprocs environment variable in container runtimes.
	// see https://martin.baillie.id/wrote/gotchas-in-the-go-network-packages-defaults/#bonus-gomaxprocs-containers-and-the-cfs
	"go.uber.org/automaxprocs/maxprocs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Set the local timezone to UTC
	time.Local = time.UTC

	// Initialize the configuration
	config, err := config.MustLoadConfig()
	if err != nil {
		logByDefault.Fatalf("Config load error: %v", err)
	}

	// Logger configuration
	logger := log.New(
		log.WithLevel(config.Verbose),
		log.WithFormat(config.LogFormat),
		log.WithSource(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil {
		logger.ErrorContext(ctx, "an error occurred", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, config *config.Config, logger *slog.Logger) error {
	_, err := maxprocs.Set(maxprocs.Logger(func(s string, i ...interface{}) {
		logger.DebugContext(ctx, fmt.Sprintf(s, i...))
	}))
	if err != nil {
		return fmt.Errorf("setting max procs: %w", err)
	}

	if config.Secret == "" {
		return errors.New("secret is required to sign access tokens")
	}

	// Setup database connection
	db, err := storage.New(config, logger)
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	defer db.Close()

	// Setup InfluxDB metrics (if any)
	metricsClient := metrics.New(&config.Metrics, map[string]string{"environment": config.Environment})
	defer metricsClient.Close()

	// Staff notifications and Telegram commands (if any)
	var notifier notify.Notifier = notify.Nop{}
	var telegram *notify.Telegram
	if config.Telegram.Token != "" {
		httpClient, err := httpclient.New(&config.Proxy, config.Telegram.Timeout+10*time.Second)
		if err != nil {
			return fmt.Errorf("http client error: %w", err)
		}
		telegram, err = notify.NewTelegram(&config.Telegram, httpClient, logger)
		if err != nil {
			return fmt.Errorf("telegram bot setup error: %w", err)
		}
		notifier = telegram
	}

	// Moderation core
	console := moderation.NewConsole(db, logger,
		moderation.WithMetrics(metricsClient),
		moderation.WithNotifier(notifier),
		moderation.WithBanListLimit(config.Moderation.BanListLimit),
	)
	sweeper := moderation.NewSweeper(db, logger, metricsClient, nil)
	gate := moderation.NewGate(db, nil)

	// Authentication
	throttle, err := auth.NewThrottle(config.Auth.MaxFailedAttempts, config.Auth.LockoutWindow)
	if err != nil {
		return fmt.Errorf("login throttle error: %w", err)
	}
	defer throttle.Close()
	authService := auth.NewService(db, gate, auth.NewTokens(config.Secret, config.Auth.TokenTTL), throttle, logger)

	// Staff triage
	triageService := triage.NewService(db, email.New(&config.Email, logger), notifier, metricsClient, logger)

	// Setup API server
	srv := server.New(config, logger, server.Dependencies{
		Auth:    authService,
		Console: console,
		Sweeper: sweeper,
		Bans:    db,
		Triage:  triageService,
	})
	srv.AddHealthCheck(func(ctx context.Context) (bool, map[string]string) {
		if err := db.Ping(ctx); err != nil {
			return false, map[string]string{"database": err.Error()}
		}
		return true, map[string]string{"database": "ok"}
	})

	if config.Moderation.SweepInterval > 0 {
		go sweeper.Run(ctx, config.Moderation.SweepInterval)
	}

	if telegram != nil && config.Telegram.Commands {
		telegram.HandleCommands(console)
		go telegram.Start()
		defer telegram.Stop()
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "Server started", slog.String("host", config.API.Host), slog.Int("port", config.API.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.InfoContext(context.Background(), "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}
