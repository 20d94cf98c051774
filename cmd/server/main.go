// Command server runs the inventory HTTP API.
//
// Exit codes: 0 = clean shutdown, 1 = startup or shutdown error.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/heartmarshall/stock-ledger/internal/app"
	"github.com/heartmarshall/stock-ledger/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, logCloser := app.NewLogger(cfg.Log)
	defer logCloser.Close()

	// Cancelled on shutdown; bounds the product feed and scheduled jobs.
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := app.New(runCtx, cfg, logger)
	if err != nil {
		logger.Error("init application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := a.Start(runCtx); err != nil {
		logger.Error("start application", slog.String("error", err.Error()))
		_ = a.Close()
		os.Exit(1)
	}

	srv := a.HTTPServer()
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"stock-ledger": func(ctx context.Context) error {
				logger.Info("shutting down")
				var errs []error
				if err := srv.Shutdown(ctx); err != nil {
					errs = append(errs, fmt.Errorf("http shutdown: %w", err))
				}
				stop()
				if err := a.Close(); err != nil {
					errs = append(errs, err)
				}
				return errors.Join(errs...)
			},
		},
	)

	exitCode := <-wait
	logger.Info("application exited", slog.Int("code", exitCode))
	logCloser.Close()
	os.Exit(exitCode)
}
