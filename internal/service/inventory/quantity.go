package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// ApplyDelta adds delta to the product quantity, clamping at zero, and
// records a restock (delta > 0) or usage entry stamped with sessionID.
func (s *Service) ApplyDelta(ctx context.Context, productID string, delta decimal.Decimal, sessionID string) (*domain.Product, error) {
	user := actorName(ctx)
	p, err := s.mutate(ctx, "apply delta", productID, func(p *domain.Product) (domain.ProductPatch, error) {
		return p.ApplyDelta(delta, s.now(), user, sessionID), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "quantity changed",
		slog.String("product_id", productID),
		slog.String("delta", delta.String()),
		slog.String("quantity", p.Quantity.String()),
		slog.String("session_id", sessionID),
	)
	return p, nil
}

// Consume removes amount from the product. Asking for more than is in stock
// is a ValidationError; the check reads the same locked row the write
// updates, so a concurrent change cannot slip in between.
func (s *Service) Consume(ctx context.Context, productID string, amount decimal.Decimal, sessionID string) (*domain.Product, error) {
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be greater than 0")
	}

	user := actorName(ctx)
	p, err := s.mutate(ctx, "consume", productID, func(p *domain.Product) (domain.ProductPatch, error) {
		if amount.GreaterThan(p.Quantity) {
			return domain.ProductPatch{}, domain.NewValidationError("amount",
				fmt.Sprintf("Solo tienes %s %s. No puedes registrar %s.", p.Quantity, p.Unit, amount))
		}
		return p.ApplyDelta(amount.Neg(), s.now(), user, sessionID), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "stock consumed",
		slog.String("product_id", productID),
		slog.String("amount", amount.String()),
		slog.String("quantity", p.Quantity.String()),
		slog.String("session_id", sessionID),
	)
	return p, nil
}

// Restock adds a positive amount given as raw user input.
func (s *Service) Restock(ctx context.Context, productID, raw string) (*domain.Product, error) {
	amount, err := domain.ParseQuantity("amount", raw)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be greater than 0")
	}
	return s.ApplyDelta(ctx, productID, amount, "")
}

// SetAbsolute overwrites the quantity with a non-negative value given as raw
// user input and records an edit entry.
func (s *Service) SetAbsolute(ctx context.Context, productID, raw string) (*domain.Product, error) {
	q, err := domain.ParseQuantity("quantity", raw)
	if err != nil {
		return nil, err
	}
	if q.IsNegative() {
		return nil, domain.NewValidationError("quantity", "must not be negative")
	}

	user := actorName(ctx)
	var prev decimal.Decimal
	p, err := s.mutate(ctx, "set quantity", productID, func(p *domain.Product) (domain.ProductPatch, error) {
		prev = p.Quantity
		return p.SetQuantity(q, s.now(), user), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "quantity set",
		slog.String("product_id", productID),
		slog.String("previous", prev.String()),
		slog.String("quantity", p.Quantity.String()),
	)
	return p, nil
}
