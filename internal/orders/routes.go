package orders

import "github.com/go-chi/chi/v5"

// MountRoutes registers order and payment routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/new", h.askCustomer)
		r.Post("/new", h.chooseCustomer)
		r.Get("/new/{custNo}", h.showProducts)
		r.Post("/new/{custNo}", h.create)
		r.Get("/unpaid", h.unpaid)
		r.Get("/summary", h.askSummary)
		r.Post("/summary", h.summary)
		r.Post("/{orderNo}/pay", h.pay)
	})
}
