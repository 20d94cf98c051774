package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// ExportSnapshot serialises products as an indented JSON array. A nil list
// becomes [].
func ExportSnapshot(products []domain.Product) ([]byte, error) {
	if products == nil {
		products = []domain.Product{}
	}
	return json.MarshalIndent(products, "", "  ")
}

// Export snapshots the stored product set.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	list, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	out, err := ExportSnapshot(list)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	s.log.InfoContext(ctx, "snapshot exported", slog.Int("products", len(list)))
	return out, nil
}

// historyRow is one CSV line of the ledger export.
type historyRow struct {
	Time      string `csv:"fecha"`
	Product   string `csv:"producto"`
	Unit      string `csv:"unidad"`
	Type      string `csv:"tipo"`
	Amount    string `csv:"cantidad"`
	Previous  string `csv:"anterior"`
	New       string `csv:"nuevo"`
	Changes   string `csv:"cambios"`
	User      string `csv:"usuario"`
	SessionID string `csv:"sesion"`
}

// ExportHistoryCSV writes the ledger of every stored product to w, newest
// first.
func (s *Service) ExportHistoryCSV(ctx context.Context, w io.Writer) error {
	list, err := s.products.List(ctx)
	if err != nil {
		return err
	}

	type stamped struct {
		ts  int64
		row historyRow
	}
	var entries []stamped
	for _, p := range list {
		for _, e := range p.History {
			row := historyRow{
				Time:      e.Time().Format(time.DateTime),
				Product:   p.Name,
				Unit:      p.Unit,
				Type:      e.Type.String(),
				User:      e.User,
				SessionID: e.SessionID,
			}
			if e.Amount != nil {
				row.Amount = e.Amount.String()
			}
			if e.Previous != nil {
				row.Previous = e.Previous.String()
			}
			if e.New != nil {
				row.New = e.New.String()
			}
			row.Changes = strings.Join(e.Changes, "; ")
			entries = append(entries, stamped{ts: e.Timestamp, row: row})
		}
	}
	slices.SortStableFunc(entries, func(a, b stamped) int {
		switch {
		case a.ts > b.ts:
			return -1
		case a.ts < b.ts:
			return 1
		}
		return 0
	})

	rows := make([]historyRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.row)
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write history csv: %w", err)
	}

	s.log.InfoContext(ctx, "history exported", slog.Int("rows", len(rows)))
	return nil
}
