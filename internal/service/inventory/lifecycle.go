package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// CreateProduct stores a new active product whose ledger starts with a
// restock entry from 0 to the initial quantity. Returns the new id.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (string, error) {
	if err := input.Validate(); err != nil {
		return "", err
	}
	qty, _ := domain.ParseQuantity("quantity", input.Quantity)

	now := s.now()
	p := domain.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Unit:        strings.TrimSpace(input.Unit),
		Image:       strings.TrimSpace(input.Image),
		Quantity:    qty,
		IsActive:    true,
		History: []domain.HistoryEntry{{
			Timestamp: now.UnixMilli(),
			Type:      domain.HistoryRestock,
			Amount:    ptr(qty),
			Previous:  ptr(decimal.Zero),
			New:       ptr(qty),
			User:      actorName(ctx),
			SessionID: fmt.Sprintf("initial_%d", now.UnixMilli()),
		}},
	}

	id, err := s.products.Create(ctx, p)
	if err != nil {
		return "", classify("create product", err)
	}

	s.log.InfoContext(ctx, "product created",
		slog.String("product_id", id),
		slog.String("name", p.Name),
		slog.String("quantity", p.Quantity.String()),
	)
	return id, nil
}

// Deactivate soft-deletes a product.
func (s *Service) Deactivate(ctx context.Context, productID string) (*domain.Product, error) {
	return s.setActive(ctx, productID, false)
}

// Reactivate restores a soft-deleted product.
func (s *Service) Reactivate(ctx context.Context, productID string) (*domain.Product, error) {
	return s.setActive(ctx, productID, true)
}

func (s *Service) setActive(ctx context.Context, productID string, active bool) (*domain.Product, error) {
	user := actorName(ctx)
	p, err := s.mutate(ctx, "set active", productID, func(p *domain.Product) (domain.ProductPatch, error) {
		return p.SetActive(active, s.now(), user), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "product activation changed",
		slog.String("product_id", productID),
		slog.Bool("active", active),
	)
	return p, nil
}

// Purge deletes a product permanently. No ledger entry survives.
func (s *Service) Purge(ctx context.Context, input PurgeInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetForUpdate(ctx, input.ProductID); err != nil {
			return err
		}
		return s.products.Delete(ctx, input.ProductID)
	})
	if err != nil {
		return classify("purge product", err)
	}

	s.log.InfoContext(ctx, "product purged", slog.String("product_id", input.ProductID))
	return nil
}

func ptr[T any](v T) *T { return &v }
