// Reactivate users whose bans have expired, one pass. Meant for cron when the
// in-process sweeper is disabled.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/plugfox/addonhub/internal/config"
	"github.com/plugfox/addonhub/internal/log"
	"github.com/plugfox/addonhub/internal/metrics"
	"github.com/plugfox/addonhub/internal/moderation"
	"github.com/plugfox/addonhub/internal/storage"
)

func main() {
	time.Local = time.UTC

	cfg, err := config.MustLoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(log.WithLevel(cfg.Verbose), log.WithFormat(cfg.LogFormat))

	db, err := storage.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Database connection error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New(&cfg.Metrics, map[string]string{"environment": cfg.Environment})
	defer m.Close()

	result, err := moderation.NewSweeper(db, logger, m, nil).Sweep(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sweep failed: %v\n", err)
		os.Exit(1) //nolint:gocritic
	}

	fmt.Printf("expired bans found: %d\n", result.Examined)
	fmt.Printf("users reactivated: %d\n", result.Reactivated)
}
