package productstore

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// All returns every product in document order.
func (s *Store) All() []domain.Product {
	return s.filter(func(domain.Product) bool { return true })
}

// Active returns the active products in document order.
func (s *Store) Active() []domain.Product {
	return s.filter(func(p domain.Product) bool { return p.IsActive })
}

// Inactive returns the soft-deleted products sorted by name.
func (s *Store) Inactive() []domain.Product {
	out := s.filter(func(p domain.Product) bool { return !p.IsActive })
	slices.SortStableFunc(out, func(a, b domain.Product) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

func (s *Store) filter(keep func(domain.Product) bool) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.list))
	for _, p := range s.list {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Get returns one product.
func (s *Store) Get(id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.list {
		if p.ID == id {
			c := p.Clone()
			return &c, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
}

// History flattens the ledger of every product, newest first, narrowed by f.
func (s *Store) History(f domain.HistoryFilter) []domain.HistoryRecord {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	s.mu.RLock()
	var out []domain.HistoryRecord
	for _, p := range s.list {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		for _, e := range p.History {
			if f.Date != "" && e.Day() != f.Date {
				continue
			}
			out = append(out, domain.HistoryRecord{
				ProductID:   p.ID,
				ProductName: p.Name,
				Unit:        p.Unit,
				Entry:       e,
			})
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b domain.HistoryRecord) int {
		return cmp.Compare(b.Entry.Timestamp, a.Entry.Timestamp)
	})
	return out
}

// HistoryDates returns every day with at least one ledger entry, ascending.
func (s *Store) HistoryDates() []string {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, p := range s.list {
		for _, e := range p.History {
			seen[e.Day()] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// ProductHistory returns one product's ledger, optionally limited to a day.
func (s *Store) ProductHistory(id, date string) ([]domain.HistoryEntry, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HistoryEntry, 0, len(p.History))
	for _, e := range p.History {
		if date == "" || e.Day() == date {
			out = append(out, e)
		}
	}
	return out, nil
}
