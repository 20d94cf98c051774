// Command seed-products replaces the whole product catalogue with the
// products in a JSON file (or the built-in catalogue). Existing products and
// their history are removed. Jobs are left alone.
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
	"github.com/heartmarshall/stock-ledger/internal/service/productstore"
)

func main() {
	file := flag.String("file", "", "products JSON file (default: seed.products_file, then the built-in list)")
	confirm := flag.Bool("confirm", false, "required: the catalogue is replaced")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, logCloser := app.NewLogger(cfg.Log)
	defer logCloser.Close()

	if !*confirm {
		logger.Error("refusing to replace the catalogue without -confirm")
		logCloser.Close()
		os.Exit(2)
	}

	path := *file
	if path == "" {
		path = cfg.Seed.ProductsFile
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger, path); err != nil {
		logger.Error("seed products failed", slog.String("error", err.Error()))
		cancel()
		logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) error {
	items, err := productstore.LoadProducts(path)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Backup.SeedProducts(ctx, items)
	if err != nil {
		return err
	}
	logger.Info("products seeded",
		slog.Int("deleted", res.Deleted),
		slog.Int("written", res.Written),
	)
	return nil
}
