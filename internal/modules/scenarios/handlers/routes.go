package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all scenario routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/scenarios", func(r chi.Router) {
		r.Post("/", h.HandleSaveScenario)
		r.Get("/{hash}", func(w http.ResponseWriter, r *http.Request) {
			hash := chi.URLParam(r, "hash")
			h.HandleGetScenario(w, r, hash)
		})
	})
}
