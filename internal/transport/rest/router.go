package rest

import (
	"net/http"

	"github.com/heartmarshall/stock-ledger/internal/transport/middleware"
)

// Handlers groups every REST handler served by the application.
type Handlers struct {
	Health        *HealthHandler
	Auth          *AuthHandler
	Products      *ProductHandler
	History       *HistoryHandler
	Jobs          *JobHandler
	Admin         *AdminHandler
	Announcements *AnnouncementHandler

	// LoginLimit wraps POST /auth/login. Nil means unlimited.
	LoginLimit middleware.Middleware
}

// Register adds every route to mux. Probes and login are public; everything
// else requires an authenticated user, admin checks happen in the handlers.
func (hs Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /live", hs.Health.Live)
	mux.HandleFunc("GET /ready", hs.Health.Ready)
	mux.HandleFunc("GET /health", hs.Health.Health)

	mux.Handle("POST /auth/login", middleware.Chain(hs.LoginLimit)(http.HandlerFunc(hs.Auth.Login)))

	private := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequireUser(h))
	}

	private("POST /auth/logout", hs.Auth.Logout)
	private("GET /auth/me", hs.Auth.Me)

	private("GET /products", hs.Products.List)
	private("POST /products", hs.Products.Create)
	private("GET /products/{id}", hs.Products.Get)
	private("PATCH /products/{id}", hs.Products.EditDetails)
	private("DELETE /products/{id}", hs.Products.Purge)
	private("GET /products/{id}/history", hs.Products.History)
	private("POST /products/{id}/restock", hs.Products.Restock)
	private("PUT /products/{id}/quantity", hs.Products.SetQuantity)
	private("POST /products/{id}/deactivate", hs.Products.Deactivate)
	private("POST /products/{id}/reactivate", hs.Products.Reactivate)

	private("GET /history", hs.History.List)
	private("GET /history/dates", hs.History.Dates)
	private("GET /history/export.csv", hs.History.ExportCSV)

	private("POST /sessions", hs.Jobs.Start)
	private("GET /sessions/{id}", hs.Jobs.Get)
	private("DELETE /sessions/{id}", hs.Jobs.Cancel)
	private("POST /sessions/{id}/usage", hs.Jobs.Usage)
	private("POST /sessions/{id}/restock", hs.Jobs.Restock)
	private("POST /sessions/{id}/finish", hs.Jobs.Finish)
	private("GET /jobs/last", hs.Jobs.Last)
	private("POST /jobs/{id}/rollback", hs.Jobs.Rollback)

	private("GET /backup", hs.Admin.Backup)
	private("POST /backup/restore", hs.Admin.Restore)
	private("POST /admin/reset", hs.Admin.Reset)

	private("GET /announcements", hs.Announcements.List)
	private("POST /announcements", hs.Announcements.Create)
	private("GET /announcements/pending", hs.Announcements.Pending)
	private("PATCH /announcements/{id}", hs.Announcements.Update)
	private("DELETE /announcements/{id}", hs.Announcements.Delete)
	private("POST /announcements/{id}/ack", hs.Announcements.Acknowledge)
}
