package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all bond routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/bonds", func(r chi.Router) {
		// Ad-hoc calculations (no stored state)
		r.Post("/price", h.HandlePrice)
		r.Post("/yield", h.HandleYield)

		// Stored bond book
		r.Post("/", h.HandleCreateBond)
		r.Get("/", h.HandleListBonds)

		r.Route("/{bondID}", func(r chi.Router) {
			r.Get("/", h.HandleGetBond)
			r.Delete("/", h.HandleDeleteBond)
			r.Get("/valuations", h.HandleListValuations)
			r.Post("/revalue", h.HandleRevalue)
		})
	})
}
