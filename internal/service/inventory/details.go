package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// EditDetails applies name, description and unit changes. A details_edit
// entry listing the changed fields is recorded only when something changed.
func (s *Service) EditDetails(ctx context.Context, productID string, u domain.DetailsUpdate) (*domain.Product, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	u = trimDetails(u)

	user := actorName(ctx)
	var changed []string
	p, err := s.mutate(ctx, "edit details", productID, func(p *domain.Product) (domain.ProductPatch, error) {
		var patch domain.ProductPatch
		patch, changed = p.ApplyDetails(u, s.now(), user)
		return patch, nil
	})
	if err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		s.log.InfoContext(ctx, "product details edited",
			slog.String("product_id", productID),
			slog.String("changes", strings.Join(changed, ",")),
		)
	}
	return p, nil
}

func trimDetails(u domain.DetailsUpdate) domain.DetailsUpdate {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	return domain.DetailsUpdate{
		Name:        trim(u.Name),
		Description: trim(u.Description),
		Unit:        trim(u.Unit),
	}
}
