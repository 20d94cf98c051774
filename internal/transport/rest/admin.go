package rest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/service/backup"
	"github.com/heartmarshall/stock-ledger/internal/transport/middleware"
)

type backupService interface {
	Export(ctx context.Context) ([]byte, error)
	Restore(ctx context.Context, raw []byte) (*backup.RestoreResult, error)
	Reset(ctx context.Context) (*backup.ResetResult, error)
}

// AdminHandler serves snapshot download, restore and the inventory reset.
type AdminHandler struct {
	backup  backupService
	maxBody int64
	log     *slog.Logger
	now     func() time.Time
}

// NewAdminHandler creates an AdminHandler. maxBody caps the restore upload.
func NewAdminHandler(svc backupService, maxBody int64, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		backup:  svc,
		maxBody: maxBody,
		log:     logger.With("handler", "admin"),
		now:     time.Now,
	}
}

// Backup handles GET /backup: the product snapshot as a file download.
func (h *AdminHandler) Backup(w http.ResponseWriter, r *http.Request) {
	data, err := h.backup.Export(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(h.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// Restore handles POST /backup/restore?confirm=true. The body is the raw
// snapshot file. Admin only.
func (h *AdminHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if !confirmed(r) {
		handleError(h.log, w, r, errConfirmRequired("restore"))
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	res, err := h.backup.Restore(r.Context(), raw)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": res.Deleted, "written": res.Written})
}

// Reset handles POST /admin/reset?confirm=true: every quantity to zero,
// every history and job cleared. Admin only.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if !confirmed(r) {
		handleError(h.log, w, r, errConfirmRequired("reset"))
		return
	}

	res, err := h.backup.Reset(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"products": res.Products, "jobs": res.Jobs})
}
