package suppliers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/httpx"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/internal/view"
)

// Handler serves the supplier pages.
type Handler struct {
	logger  *slog.Logger
	service *Service
	view    *view.Responder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, responder *view.Responder) *Handler {
	return &Handler{logger: logger, service: service, view: responder}
}

type formPage struct {
	Form  AddSupplierInput
	Error string
}

// MountRoutes registers supplier routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/suppliers", h.list)
	r.Get("/suppliers/new", h.showForm)
	r.Post("/suppliers", h.create)
	r.Post("/suppliers/{tin}/remove", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list suppliers", slog.Any("error", err))
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		http.Error(w, httpx.UserMessage(err), httpx.StatusFor(err))
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSONList(w, suppliers)
		return
	}
	h.view.Page(w, r, http.StatusOK, "pages/suppliers.html", "Suppliers", map[string]any{
		"Suppliers": suppliers,
	})
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.view.Page(w, r, http.StatusOK, "pages/supplier_form.html", "New supplier", formPage{})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := AddSupplierInput{
		TIN:     r.PostFormValue("tin"),
		Name:    r.PostFormValue("name"),
		Address: r.PostFormValue("address"),
		SKU:     r.PostFormValue("sku"),
		Date:    r.PostFormValue("date"),
	}
	supplier, err := h.service.Add(r.Context(), input)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, shared.ErrValidation):
			msg = httpx.UserMessage(err)
		case errors.Is(err, shared.ErrConflict):
			msg = "A supplier with TIN " + input.TIN + " already exists."
		case errors.Is(err, shared.ErrNotFound):
			msg = "Product " + input.SKU + " does not exist."
		default:
			h.logger.Error("add supplier", slog.Any("error", err))
			http.Error(w, httpx.UserMessage(err), http.StatusInternalServerError)
			return
		}
		h.view.Page(w, r, httpx.StatusFor(err), "pages/supplier_form.html", "New supplier", formPage{Form: input, Error: msg})
		return
	}
	h.view.RedirectWithFlash(w, r, "/suppliers", shared.FlashSuccess, "Supplier "+supplier.TIN+" added.")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	tin := chi.URLParam(r, "tin")
	if err := h.service.Remove(r.Context(), tin); err != nil {
		h.logger.Error("remove supplier", slog.String("tin", tin), slog.Any("error", err))
		h.view.RedirectWithFlash(w, r, "/suppliers", shared.FlashError, httpx.UserMessage(err))
		return
	}
	h.view.RedirectWithFlash(w, r, "/suppliers", shared.FlashSuccess, "Supplier "+tin+" removed.")
}
