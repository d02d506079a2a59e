// internal/app/features/teams/routes.go
package teams

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the team routes under "/teams". Registration and lookup are
// public; listing, status changes and export go through requireAdmin.
func Routes(h *Handler, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ServeRegister)
	r.Get("/{id}", h.ServeGet)

	r.Group(func(pr chi.Router) {
		pr.Use(requireAdmin)

		pr.Get("/", h.ServeList)
		pr.Patch("/{id}/status", h.ServeSetStatus)
		pr.Get("/export/excel", h.ServeExport)
	})

	return r
}
