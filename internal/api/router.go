package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tagprogress/internal/statservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *statservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Overview.
	r.Get("/overview", h.GetOverview)
	r.Post("/overview", h.PostOverview)
	r.Post("/overview/initial", h.InitialOverview)

	// Tags.
	r.Get("/tags/stats", h.TagStats)
	r.Get("/tags/custom", h.CustomTagStats)
	r.Get("/tags/search", h.SearchTags)
	r.Get("/subjects", h.Subjects)

	// Saved state and modules.
	r.Get("/state", h.GetState)
	r.Put("/state", h.PutState)
	r.Get("/modules", h.Modules)
	r.Put("/modules/{id}", h.PutModule)

	r.Get("/export.csv", h.ExportCSV)
	r.Get("/status", h.Status)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
