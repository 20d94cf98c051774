// Package inventory applies quantity and detail mutations to products and
// records each one in the product's bounded ledger.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/pkg/ctxutil"
)

type productRepo interface {
	GetForUpdate(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (string, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) error
	Delete(ctx context.Context, id string) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service is the mutation engine. Every read-modify-write runs in a
// transaction against the latest stored product, never a cached copy.
type Service struct {
	products productRepo
	tx       txManager
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new inventory service.
func NewService(
	log *slog.Logger,
	products productRepo,
	tx txManager,
) *Service {
	return &Service{
		products: products,
		tx:       tx,
		log:      log.With("service", "inventory"),
		now:      time.Now,
	}
}

// actorName is the name stamped on ledger entries.
func actorName(ctx context.Context) string {
	return ctxutil.ActorNameFromCtx(ctx, domain.UnknownUser)
}

// mutate loads id under lock, lets fn change it and writes the returned patch.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(p *domain.Product) (domain.ProductPatch, error)) (*domain.Product, error) {
	if id == "" {
		return nil, domain.NewValidationError("product_id", "required")
	}

	var out *domain.Product
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		patch, err := fn(p)
		if err != nil {
			return err
		}
		if err := s.products.Update(ctx, id, patch); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// classify passes caller-facing errors through and reports everything else as
// a persistence failure.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrPersistence),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}
