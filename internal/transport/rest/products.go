package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/internal/service/inventory"
	"github.com/heartmarshall/stock-ledger/internal/transport/middleware"
)

type productReader interface {
	All() []domain.Product
	Active() []domain.Product
	Inactive() []domain.Product
	Get(id string) (*domain.Product, error)
	ProductHistory(id, date string) ([]domain.HistoryEntry, error)
}

type inventoryService interface {
	CreateProduct(ctx context.Context, input inventory.CreateProductInput) (string, error)
	EditDetails(ctx context.Context, productID string, u domain.DetailsUpdate) (*domain.Product, error)
	Restock(ctx context.Context, productID, raw string) (*domain.Product, error)
	SetAbsolute(ctx context.Context, productID, raw string) (*domain.Product, error)
	Deactivate(ctx context.Context, productID string) (*domain.Product, error)
	Reactivate(ctx context.Context, productID string) (*domain.Product, error)
	Purge(ctx context.Context, input inventory.PurgeInput) error
}

// ProductHandler serves /products endpoints. Reads come from the mirrored
// product store, writes go through the inventory service.
type ProductHandler struct {
	store     productReader
	inventory inventoryService
	log       *slog.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(store productReader, inv inventoryService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{store: store, inventory: inv, log: logger.With("handler", "products")}
}

type createProductRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Unit        string     `json:"unit"`
	Image       string     `json:"image"`
	Quantity    numberText `json:"quantity"`
}

type editDetailsRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Unit        *string `json:"unit"`
}

type amountRequest struct {
	Amount numberText `json:"amount"`
}

type quantityRequest struct {
	Quantity numberText `json:"quantity"`
}

// List handles GET /products?status=active|inactive|all. The default is active.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var list []domain.Product
	switch status := r.URL.Query().Get("status"); status {
	case "", "active":
		list = h.store.Active()
	case "inactive":
		list = h.store.Inactive()
	case "all":
		list = h.store.All()
	default:
		handleError(h.log, w, r, domain.NewValidationError("status", "must be active, inactive or all"))
		return
	}
	if list == nil {
		list = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// History handles GET /products/{id}/history?date=YYYY-MM-DD.
func (h *ProductHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ProductHistory(r.PathValue("id"), r.URL.Query().Get("date"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Create handles POST /products. Admin only.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	id, err := h.inventory.CreateProduct(r.Context(), inventory.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		Image:       req.Image,
		Quantity:    string(req.Quantity),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// EditDetails handles PATCH /products/{id}.
func (h *ProductHandler) EditDetails(w http.ResponseWriter, r *http.Request) {
	var req editDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	p, err := h.inventory.EditDetails(r.Context(), r.PathValue("id"), domain.DetailsUpdate{
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
	})
	h.respondProduct(w, r, p, err)
}

// Restock handles POST /products/{id}/restock.
func (h *ProductHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	p, err := h.inventory.Restock(r.Context(), r.PathValue("id"), string(req.Amount))
	h.respondProduct(w, r, p, err)
}

// SetQuantity handles PUT /products/{id}/quantity.
func (h *ProductHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	p, err := h.inventory.SetAbsolute(r.Context(), r.PathValue("id"), string(req.Quantity))
	h.respondProduct(w, r, p, err)
}

// Deactivate handles POST /products/{id}/deactivate.
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	p, err := h.inventory.Deactivate(r.Context(), r.PathValue("id"))
	h.respondProduct(w, r, p, err)
}

// Reactivate handles POST /products/{id}/reactivate. Admin only.
func (h *ProductHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	p, err := h.inventory.Reactivate(r.Context(), r.PathValue("id"))
	h.respondProduct(w, r, p, err)
}

// Purge handles DELETE /products/{id}?confirm=true. Admin only.
func (h *ProductHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	err := h.inventory.Purge(r.Context(), inventory.PurgeInput{
		ProductID: r.PathValue("id"),
		Confirm:   confirmed(r),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) respondProduct(w http.ResponseWriter, r *http.Request, p *domain.Product, err error) {
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
