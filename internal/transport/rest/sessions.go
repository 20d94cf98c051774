package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/internal/service/job"
	"github.com/heartmarshall/stock-ledger/internal/transport/middleware"
)

type jobService interface {
	StartSession(ctx context.Context) (*job.Session, error)
	GetSession(ctx context.Context, sessionID string) (*job.Session, error)
	RecordUsage(ctx context.Context, sessionID string, input job.UsageInput) (*job.UsageResult, error)
	RecordRestock(ctx context.Context, sessionID, productID, raw string) (*domain.Product, error)
	Finish(ctx context.Context, sessionID string) (*domain.Job, error)
	Cancel(ctx context.Context, sessionID string) (*domain.Job, error)
	LastJob(ctx context.Context) (*domain.Job, error)
	Rollback(ctx context.Context, jobID string) (*job.RollbackResult, error)
}

// JobHandler serves usage sessions (/sessions) and the jobs they leave
// behind (/jobs).
type JobHandler struct {
	jobs jobService
	log  *slog.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(jobs jobService, logger *slog.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, log: logger.With("handler", "jobs")}
}

type usageRequest struct {
	ProductID string     `json:"productId"`
	Amount    numberText `json:"amount"`
	Restock   numberText `json:"restock"`
}

type sessionRestockRequest struct {
	ProductID string     `json:"productId"`
	Amount    numberText `json:"amount"`
}

type usageResponse struct {
	Product   *domain.Product `json:"product"`
	Depleted  bool            `json:"depleted"`
	Restocked bool            `json:"restocked"`
}

type rollbackWarning struct {
	Message           string   `json:"message"`
	MissingProductIDs []string `json:"missingProductIds"`
}

type rollbackResponse struct {
	Job               *domain.Job      `json:"job,omitempty"`
	Reverted          []string         `json:"reverted"`
	AlreadyRolledBack bool             `json:"alreadyRolledBack"`
	Warning           *rollbackWarning `json:"warning,omitempty"`
}

// Start handles POST /sessions.
func (h *JobHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, err := h.jobs.StartSession(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// Get handles GET /sessions/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.jobs.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Usage handles POST /sessions/{id}/usage.
func (h *JobHandler) Usage(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	res, err := h.jobs.RecordUsage(r.Context(), r.PathValue("id"), job.UsageInput{
		ProductID: req.ProductID,
		Amount:    string(req.Amount),
		Restock:   string(req.Restock),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Product: res.Product, Depleted: res.Depleted, Restocked: res.Restocked})
}

// Restock handles POST /sessions/{id}/restock.
func (h *JobHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req sessionRestockRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	p, err := h.jobs.RecordRestock(r.Context(), r.PathValue("id"), req.ProductID, string(req.Amount))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Finish handles POST /sessions/{id}/finish. A session with no recorded
// changes closes without a job and answers 204.
func (h *JobHandler) Finish(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Finish(r.Context(), r.PathValue("id"))
	h.respondJob(w, r, j, err)
}

// Cancel handles DELETE /sessions/{id}.
func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Cancel(r.Context(), r.PathValue("id"))
	h.respondJob(w, r, j, err)
}

// Last handles GET /jobs/last.
func (h *JobHandler) Last(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.LastJob(r.Context())
	h.respondJob(w, r, j, err)
}

// Rollback handles POST /jobs/{id}/rollback. Admin only. Missing products
// do not fail the request; they come back as a warning.
func (h *JobHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	res, err := h.jobs.Rollback(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := rollbackResponse{
		Job:               res.Job,
		Reverted:          res.Reverted,
		AlreadyRolledBack: res.AlreadyRolledBack,
	}
	if resp.Reverted == nil {
		resp.Reverted = []string{}
	}
	if res.Warning != nil {
		resp.Warning = &rollbackWarning{Message: res.Warning.Error(), MissingProductIDs: res.Warning.MissingProductIDs}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *JobHandler) respondJob(w http.ResponseWriter, r *http.Request, j *domain.Job, err error) {
	switch {
	case err != nil:
		handleError(h.log, w, r, err)
	case j == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, j)
	}
}
