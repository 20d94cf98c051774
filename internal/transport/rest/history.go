package rest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type ledgerReader interface {
	History(f domain.HistoryFilter) []domain.HistoryRecord
	HistoryDates() []string
}

type historyExporter interface {
	ExportHistoryCSV(ctx context.Context, w io.Writer) error
}

// HistoryHandler serves the global ledger view.
type HistoryHandler struct {
	store    ledgerReader
	exporter historyExporter
	log      *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(store ledgerReader, exporter historyExporter, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, exporter: exporter, log: logger.With("handler", "history")}
}

type historyRecordResponse struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Unit        string `json:"unit"`
	domain.HistoryEntry
}

// List handles GET /history?q=&date=.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records := h.store.History(domain.HistoryFilter{Search: q.Get("q"), Date: q.Get("date")})

	out := make([]historyRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, historyRecordResponse{
			ProductID:    rec.ProductID,
			ProductName:  rec.ProductName,
			Unit:         rec.Unit,
			HistoryEntry: rec.Entry,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Dates handles GET /history/dates.
func (h *HistoryHandler) Dates(w http.ResponseWriter, r *http.Request) {
	dates := h.store.HistoryDates()
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, dates)
}

// ExportCSV handles GET /history/export.csv.
func (h *HistoryHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.exporter.ExportHistoryCSV(r.Context(), &buf); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="historial.csv"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w) //nolint:errcheck
}
