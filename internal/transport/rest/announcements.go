package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/internal/service/announcement"
	"github.com/heartmarshall/stock-ledger/internal/transport/middleware"
	"github.com/heartmarshall/stock-ledger/pkg/ctxutil"
)

type announcementService interface {
	Create(ctx context.Context, message string) (*domain.Announcement, error)
	Update(ctx context.Context, id string, input announcement.UpdateInput) (*domain.Announcement, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Announcement, error)
	Pending(ctx context.Context, username string, role domain.Role) ([]domain.Announcement, error)
	Acknowledge(ctx context.Context, username, id string) error
}

type AnnouncementHandler struct {
	svc announcementService
	log *slog.Logger
}

func NewAnnouncementHandler(svc announcementService, logger *slog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc, log: logger.With("handler", "announcements")}
}

type createAnnouncementRequest struct {
	Message string `json:"message"`
}

type updateAnnouncementRequest struct {
	Message  *string `json:"message"`
	IsActive *bool   `json:"isActive"`
}

// List handles GET /announcements.
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	h.respondList(w, r, list, err)
}

// Pending handles GET /announcements/pending.
func (h *AnnouncementHandler) Pending(w http.ResponseWriter, r *http.Request) {
	actor, _ := ctxutil.ActorFromCtx(r.Context())
	list, err := h.svc.Pending(r.Context(), actor.Username, domain.Role(actor.Role))
	h.respondList(w, r, list, err)
}

// Create handles POST /announcements. Admin only.
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req createAnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	a, err := h.svc.Create(r.Context(), req.Message)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// Update handles PATCH /announcements/{id}. Admin only.
func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateAnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	a, err := h.svc.Update(r.Context(), r.PathValue("id"), announcement.UpdateInput{
		Message:  req.Message,
		IsActive: req.IsActive,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /announcements/{id}. Admin only.
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Acknowledge handles POST /announcements/{id}/ack.
func (h *AnnouncementHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	actor, _ := ctxutil.ActorFromCtx(r.Context())
	if err := h.svc.Acknowledge(r.Context(), actor.Username, r.PathValue("id")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnnouncementHandler) respondList(w http.ResponseWriter, r *http.Request, list []domain.Announcement, err error) {
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if list == nil {
		list = []domain.Announcement{}
	}
	writeJSON(w, http.StatusOK, list)
}
