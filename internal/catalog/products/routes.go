package products

import "github.com/go-chi/chi/v5"

// MountRoutes registers product routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/new", h.showAddForm)
		r.Get("/{sku}/edit", h.showEditForm)
		r.Post("/{sku}/edit", h.update)
		r.Post("/{sku}/remove", h.remove)
	})
}
