package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/stock-ledger/internal/adapter/postgres"
	"github.com/heartmarshall/stock-ledger/internal/adapter/postgres/documents"
	"github.com/heartmarshall/stock-ledger/internal/config"
	"github.com/heartmarshall/stock-ledger/internal/docstore/memstore"
	"github.com/heartmarshall/stock-ledger/internal/repository"
	"github.com/heartmarshall/stock-ledger/internal/transport/rest"
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Storage is the opened document store with its transaction runner and the
// typed collections over it.
type Storage struct {
	Docs          repository.Store
	Tx            txRunner
	Products      *repository.Products
	Jobs          *repository.Jobs
	Users         *repository.Users
	Announcements *repository.Announcements

	// Ping is nil for the in-memory driver.
	Ping  rest.Pinger
	close func()
}

// OpenStorage connects the store selected by cfg.Store.Driver.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	var s Storage
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s.Docs = documents.New(pool, logger, cfg.Store.MaxBatchOps)
		s.Tx = postgres.NewTxManager(pool)
		s.Ping = rest.PingFunc(pool.Ping)
		s.close = pool.Close
	case config.DriverMemory:
		mem := memstore.New(cfg.Store.MaxBatchOps)
		s.Docs = mem
		s.Tx = mem
		s.close = func() {}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	s.Products = repository.NewProducts(s.Docs)
	s.Jobs = repository.NewJobs(s.Docs)
	s.Users = repository.NewUsers(s.Docs)
	s.Announcements = repository.NewAnnouncements(s.Docs)

	logger.Info("store opened", slog.String("driver", cfg.Store.Driver), slog.Int("max_batch_ops", cfg.Store.MaxBatchOps))
	return &s, nil
}

// Close releases the underlying connections.
func (s *Storage) Close() {
	s.close()
}
