package products

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/httpx"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/internal/view"
)

// Handler serves the product pages.
type Handler struct {
	logger  *slog.Logger
	service *Service
	view    *view.Responder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, responder *view.Responder) *Handler {
	return &Handler{logger: logger, service: service, view: responder}
}

type addPage struct {
	Form  AddProductInput
	Error string
}

type editPage struct {
	Product Product
	Form    EditProductInput
	Error   string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, "list products", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSONList(w, products)
		return
	}
	h.view.Page(w, r, http.StatusOK, "pages/products.html", "Products", map[string]any{
		"Products": products,
	})
}

func (h *Handler) showAddForm(w http.ResponseWriter, r *http.Request) {
	h.view.Page(w, r, http.StatusOK, "pages/product_form.html", "New product", addPage{})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := AddProductInput{
		SKU:         r.PostFormValue("sku"),
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Price:       r.PostFormValue("price"),
		EAN:         r.PostFormValue("ean"),
	}
	product, err := h.service.Add(r.Context(), input)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrConflict) {
			msg := httpx.UserMessage(err)
			if errors.Is(err, shared.ErrConflict) {
				msg = "A product with SKU " + input.SKU + " already exists."
			}
			h.view.Page(w, r, httpx.StatusFor(err), "pages/product_form.html", "New product", addPage{Form: input, Error: msg})
			return
		}
		h.fail(w, r, "add product", err)
		return
	}
	h.view.RedirectWithFlash(w, r, "/products", shared.FlashSuccess, "Product "+product.SKU+" added.")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.view.RedirectWithFlash(w, r, "/products", shared.FlashError, "Product does not exist.")
			return
		}
		h.fail(w, r, "get product", err)
		return
	}
	form := EditProductInput{Price: product.Price.StringFixed(2)}
	if product.Description != nil {
		form.Description = *product.Description
	}
	h.view.Page(w, r, http.StatusOK, "pages/product_edit.html", "Edit product", editPage{Product: *product, Form: form})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := EditProductInput{
		Price:       r.PostFormValue("price"),
		Description: r.PostFormValue("description"),
	}
	if _, err := h.service.Edit(r.Context(), sku, input); err != nil {
		switch {
		case errors.Is(err, shared.ErrValidation):
			product, getErr := h.service.Get(r.Context(), sku)
			if getErr != nil {
				h.fail(w, r, "get product", getErr)
				return
			}
			h.view.Page(w, r, http.StatusBadRequest, "pages/product_edit.html", "Edit product", editPage{
				Product: *product,
				Form:    input,
				Error:   httpx.UserMessage(err),
			})
		case errors.Is(err, shared.ErrNotFound):
			h.view.RedirectWithFlash(w, r, "/products", shared.FlashError, "Product does not exist.")
		default:
			h.fail(w, r, "edit product", err)
		}
		return
	}
	h.view.RedirectWithFlash(w, r, "/products", shared.FlashSuccess, "Product "+sku+" updated.")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if err := h.service.Remove(r.Context(), sku); err != nil {
		h.fail(w, r, "remove product", err)
		return
	}
	h.view.RedirectWithFlash(w, r, "/products", shared.FlashSuccess, "Product "+sku+" removed.")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	http.Error(w, httpx.UserMessage(err), httpx.StatusFor(err))
}
