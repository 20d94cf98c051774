package productstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

//go:embed default_products.json
var defaultProducts []byte

// DefaultUnit is given to seeded products that name no unit.
const DefaultUnit = "pz"

// Seed is the data written into an empty store.
type Seed struct {
	Users    []domain.User
	Products []domain.Product
}

// LoadProducts reads a JSON array of products from path, or the built-in
// catalogue when path is empty. Every product is active with an empty ledger;
// a missing unit becomes "pz".
func LoadProducts(path string) ([]domain.Product, error) {
	raw := defaultProducts
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read products file: %w", err)
		}
		raw = b
	}

	var list []domain.Product
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &domain.FormatError{Reason: fmt.Sprintf("products file: %v", err)}
	}
	for i := range list {
		list[i].ID = ""
		list[i].IsActive = true
		list[i].History = []domain.HistoryEntry{}
		if list[i].Unit == "" {
			list[i].Unit = DefaultUnit
		}
		list[i].Normalize()
	}
	return list, nil
}

// seedUsers writes the seed users when the users collection is empty.
func (s *Store) seedUsers(ctx context.Context) error {
	if len(s.seed.Users) == 0 {
		return nil
	}
	existing, err := s.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	b := docstore.NewBatch()
	for _, u := range s.seed.Users {
		if err := s.users.StageCreate(b, uuid.NewString(), u); err != nil {
			return fmt.Errorf("stage user %s: %w", u.Username, err)
		}
	}
	if err := s.store.Commit(ctx, b); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	s.log.InfoContext(ctx, "users seeded", slog.Int("count", len(s.seed.Users)))
	return nil
}

// seedProducts writes the seed catalogue with fresh ids.
func (s *Store) seedProducts(ctx context.Context) {
	if len(s.seed.Products) == 0 {
		return
	}

	size := s.store.MaxBatchOps()
	for _, r := range docstore.Chunk(len(s.seed.Products), size) {
		b := docstore.NewBatch()
		for _, p := range s.seed.Products[r[0]:r[1]] {
			p.ID = uuid.NewString()
			if err := s.products.StageSet(b, p); err != nil {
				s.log.ErrorContext(ctx, "stage seed product", slog.String("name", p.Name), slog.String("error", err.Error()))
				return
			}
		}
		if err := s.store.Commit(ctx, b); err != nil {
			s.log.ErrorContext(ctx, "seed products", slog.String("error", err.Error()))
			return
		}
	}

	s.log.InfoContext(ctx, "products seeded", slog.Int("count", len(s.seed.Products)))
}
