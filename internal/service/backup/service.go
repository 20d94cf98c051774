// Package backup exports, restores and resets the product collection.
package backup

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type productRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	StageSet(b *docstore.Batch, p domain.Product) error
	StageUpdate(b *docstore.Batch, id string, patch domain.ProductPatch) error
	StageDelete(b *docstore.Batch, id string)
}

type jobRepo interface {
	List(ctx context.Context) ([]domain.Job, error)
	StageDelete(b *docstore.Batch, id string)
}

type committer interface {
	Commit(ctx context.Context, b *docstore.Batch) error
	MaxBatchOps() int
}

// Options configures chunking and scheduled backup files.
type Options struct {
	BatchSize int
	Dir       string
	Keep      int
}

// Service is the backup and restore engine.
type Service struct {
	products productRepo
	jobs     jobRepo
	store    committer
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a backup service. A BatchSize outside (0, MaxBatchOps)
// falls back to one below the store limit.
func NewService(
	log *slog.Logger,
	products productRepo,
	jobs jobRepo,
	store committer,
	opts Options,
) *Service {
	if limit := store.MaxBatchOps(); opts.BatchSize <= 0 || opts.BatchSize >= limit {
		opts.BatchSize = limit - 1
	}
	return &Service{
		products: products,
		jobs:     jobs,
		store:    store,
		opts:     opts,
		log:      log.With("service", "backup"),
		now:      time.Now,
	}
}

// FileName is the snapshot file name for the given day.
func FileName(t time.Time) string {
	return "backup_productos_" + t.Format(time.DateOnly) + ".json"
}

// commitChunked stages n writes in batches of the configured size. done
// reports how many writes were committed before a failure.
func (s *Service) commitChunked(ctx context.Context, n int, stage func(b *docstore.Batch, i int) error) (done int, err error) {
	for _, r := range docstore.Chunk(n, s.opts.BatchSize) {
		b := docstore.NewBatch()
		for i := r[0]; i < r[1]; i++ {
			if err := stage(b, i); err != nil {
				return done, err
			}
		}
		if err := s.store.Commit(ctx, b); err != nil {
			return done, err
		}
		done = r[1]
	}
	return done, nil
}
