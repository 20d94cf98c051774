// Command reset-inventory zeroes every product quantity, clears every
// product history and deletes every job.
//
// Exit codes: 0 = success, 1 = error, 2 = not confirmed.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/app"
	"github.com/heartmarshall/stock-ledger/internal/config"
)

func main() {
	confirm := flag.Bool("confirm", false, "required: all stock and history is wiped")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, logCloser := app.NewLogger(cfg.Log)
	defer logCloser.Close()

	if !*confirm {
		logger.Error("refusing to reset the inventory without -confirm")
		logCloser.Close()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("init application", slog.String("error", err.Error()))
		cancel()
		logCloser.Close()
		os.Exit(1)
	}

	res, err := a.Backup.Reset(ctx)
	closeErr := a.Close()
	if err != nil {
		logger.Error("reset failed", slog.String("error", err.Error()))
		logCloser.Close()
		os.Exit(1)
	}
	if closeErr != nil {
		logger.Warn("close application", slog.String("error", closeErr.Error()))
	}

	logger.Info("inventory reset",
		slog.Int("products", res.Products),
		slog.Int("jobs", res.Jobs),
	)
}
