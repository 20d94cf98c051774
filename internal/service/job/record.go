package job

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// UsageResult is the outcome of RecordUsage. Depleted reports that the usage
// emptied the product; Restocked that the chained restock was applied.
type UsageResult struct {
	Product   *domain.Product
	Depleted  bool
	Restocked bool
}

// RecordUsage consumes input.Amount of a product within the session. The stock
// check and the write share one transaction. When the usage empties the
// product and input.Restock is set, the restock is applied as a second
// mutation once the first one has been written.
func (s *Service) RecordUsage(ctx context.Context, sessionID string, input UsageInput) (*UsageResult, error) {
	in, err := input.parse()
	if err != nil {
		return nil, err
	}
	if err := s.begin(ctx, sessionID); err != nil {
		return nil, err
	}
	var details []domain.JobDetail
	defer func() { s.end(sessionID, details) }()

	p, err := s.inventory.Consume(ctx, input.ProductID, in.amount, sessionID)
	if err != nil {
		return nil, err
	}
	details = append(details, s.detail(ctx, sessionID, p, domain.JobActionUsed))
	res := &UsageResult{Product: p, Depleted: p.Quantity.IsZero()}

	if res.Depleted && in.restock.IsPositive() {
		p, err = s.inventory.ApplyDelta(ctx, input.ProductID, in.restock, sessionID)
		if err != nil {
			return res, err
		}
		details = append(details, s.detail(ctx, sessionID, p, domain.JobActionRestocked))
		res.Product = p
		res.Restocked = true
	}
	return res, nil
}

// RecordRestock adds a positive amount to a product within the session.
func (s *Service) RecordRestock(ctx context.Context, sessionID, productID, raw string) (*domain.Product, error) {
	amount, err := domain.ParseQuantity("amount", raw)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be greater than 0")
	}
	if err := s.begin(ctx, sessionID); err != nil {
		return nil, err
	}
	var details []domain.JobDetail
	defer func() { s.end(sessionID, details) }()

	p, err := s.inventory.ApplyDelta(ctx, productID, amount, sessionID)
	if err != nil {
		return nil, err
	}
	details = append(details, s.detail(ctx, sessionID, p, domain.JobActionRestocked))
	return p, nil
}

// detail describes the change just written to p. The delta is taken from the
// ledger entry, so it is what was applied after clamping, not what was asked.
func (s *Service) detail(ctx context.Context, sessionID string, p *domain.Product, action domain.JobAction) domain.JobDetail {
	prev := p.Quantity
	if len(p.History) > 0 && p.History[0].Previous != nil {
		prev = *p.History[0].Previous
	}
	d := domain.JobDetail{
		ProductID:   p.ID,
		Delta:       p.Quantity.Sub(prev),
		ProductName: p.Name,
		Unit:        p.Unit,
		Action:      action,
		PreviousQty: prev,
		NewQty:      p.Quantity,
	}

	s.log.InfoContext(ctx, "session mutation",
		slog.String("session_id", sessionID),
		slog.String("product_id", p.ID),
		slog.String("action", string(action)),
		slog.String("delta", d.Delta.String()),
	)
	return d
}
