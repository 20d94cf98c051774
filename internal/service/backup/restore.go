package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// RestoreResult counts what a restore removed and wrote.
type RestoreResult struct {
	Deleted int
	Written int
}

// ParseSnapshot decodes a snapshot file. raw must be a JSON array of
// objects. Items are normalised; ids are kept when present.
func ParseSnapshot(raw []byte) ([]domain.Product, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, &domain.FormatError{Reason: "snapshot must be a JSON array"}
	}

	out := make([]domain.Product, 0, len(items))
	for i, item := range items {
		if t := bytes.TrimSpace(item); len(t) == 0 || t[0] != '{' {
			return nil, &domain.FormatError{Reason: fmt.Sprintf("item %d is not an object", i)}
		}
		var p domain.Product
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, &domain.FormatError{Reason: fmt.Sprintf("item %d: %v", i, err)}
		}
		if !domain.QuantityInRange(p.Quantity) {
			return nil, &domain.FormatError{Reason: fmt.Sprintf("item %d: quantity out of range", i)}
		}
		p.Normalize()
		out = append(out, p)
	}
	return out, nil
}

// Restore replaces every product with the contents of a snapshot. The
// snapshot is validated before anything is deleted. Deletion and insertion
// are committed in chunks, so a failure part-way leaves a partial state that
// the returned *domain.RestoreFailedError describes.
func (s *Service) Restore(ctx context.Context, raw []byte) (*RestoreResult, error) {
	items, err := ParseSnapshot(raw)
	if err != nil {
		return nil, err
	}
	return s.replace(ctx, items)
}

// SeedProducts replaces every product with items under fresh ids, each
// active with an empty ledger.
func (s *Service) SeedProducts(ctx context.Context, items []domain.Product) (*RestoreResult, error) {
	fresh := make([]domain.Product, len(items))
	for i, p := range items {
		p.ID = uuid.NewString()
		p.IsActive = true
		p.History = []domain.HistoryEntry{}
		p.Normalize()
		fresh[i] = p
	}
	return s.replace(ctx, fresh)
}

func (s *Service) replace(ctx context.Context, items []domain.Product) (*RestoreResult, error) {
	existing, err := s.products.List(ctx)
	if err != nil {
		return nil, &domain.RestoreFailedError{Phase: domain.RestorePhaseDelete, Total: 0, Err: err}
	}

	deleted, err := s.commitChunked(ctx, len(existing), func(b *docstore.Batch, i int) error {
		s.products.StageDelete(b, existing[i].ID)
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "restore failed", slog.String("phase", "delete"), slog.Int("done", deleted), slog.String("error", err.Error()))
		return nil, &domain.RestoreFailedError{Phase: domain.RestorePhaseDelete, Done: deleted, Total: len(existing), Err: err}
	}

	written, err := s.commitChunked(ctx, len(items), func(b *docstore.Batch, i int) error {
		p := items[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		return s.products.StageSet(b, p)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "restore failed", slog.String("phase", "insert"), slog.Int("done", written), slog.String("error", err.Error()))
		return nil, &domain.RestoreFailedError{Phase: domain.RestorePhaseInsert, Done: written, Total: len(items), Err: err}
	}

	s.log.InfoContext(ctx, "products replaced",
		slog.Int("deleted", deleted),
		slog.Int("written", written),
	)
	return &RestoreResult{Deleted: deleted, Written: written}, nil
}
