package backup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// ResetResult counts what Reset touched.
type ResetResult struct {
	Products int
	Jobs     int
}

// Reset sets every product to quantity 0 with an empty ledger and deletes
// every job. Products and jobs are processed concurrently.
func (s *Service) Reset(ctx context.Context) (*ResetResult, error) {
	var res ResetResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, err := s.products.List(gctx)
		if err != nil {
			return err
		}
		zero := decimal.Zero
		patch := domain.ProductPatch{Quantity: &zero, History: []domain.HistoryEntry{}}
		n, err := s.commitChunked(gctx, len(list), func(b *docstore.Batch, i int) error {
			return s.products.StageUpdate(b, list[i].ID, patch)
		})
		res.Products = n
		if err != nil {
			return fmt.Errorf("reset products (%d/%d): %w", n, len(list), err)
		}
		return nil
	})

	g.Go(func() error {
		list, err := s.jobs.List(gctx)
		if err != nil {
			return err
		}
		n, err := s.commitChunked(gctx, len(list), func(b *docstore.Batch, i int) error {
			s.jobs.StageDelete(b, list[i].ID)
			return nil
		})
		res.Jobs = n
		if err != nil {
			return fmt.Errorf("delete jobs (%d/%d): %w", n, len(list), err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return &res, &domain.PersistenceError{Op: "reset inventory", Err: err}
	}

	s.log.InfoContext(ctx, "inventory reset",
		slog.Int("products", res.Products),
		slog.Int("jobs", res.Jobs),
	)
	return &res, nil
}
