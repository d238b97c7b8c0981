package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/httpx"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/internal/view"
)

// Handler serves the customer pages.
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
	Form  AddCustomerInput
	Error string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListActive(r.Context())
	if err != nil {
		h.fail(w, r, "list customers", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSONList(w, customers)
		return
	}
	h.view.Page(w, r, http.StatusOK, "pages/customers.html", "Customers", map[string]any{
		"Customers": customers,
	})
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.view.Page(w, r, http.StatusOK, "pages/customer_form.html", "New customer", formPage{})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := AddCustomerInput{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Address: r.PostFormValue("address"),
	}
	customer, err := h.service.Add(r.Context(), input)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrConflict) {
			h.view.Page(w, r, httpx.StatusFor(err), "pages/customer_form.html", "New customer", formPage{
				Form:  input,
				Error: httpx.UserMessage(err),
			})
			return
		}
		h.fail(w, r, "add customer", err)
		return
	}
	h.view.RedirectWithFlash(w, r, "/customers", shared.FlashSuccess,
		"Customer "+strconv.FormatInt(customer.CustNo, 10)+" added.")
}

func (h *Handler) anonymize(w http.ResponseWriter, r *http.Request) {
	custNo, err := strconv.ParseInt(chi.URLParam(r, "custNo"), 10, 64)
	if err != nil || custNo <= 0 {
		h.view.RedirectWithFlash(w, r, "/customers", shared.FlashError, "Invalid customer number.")
		return
	}
	if _, err := h.service.Anonymize(r.Context(), custNo); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.view.RedirectWithFlash(w, r, "/customers", shared.FlashError, "Customer does not exist.")
			return
		}
		h.fail(w, r, "anonymize customer", err)
		return
	}
	h.view.RedirectWithFlash(w, r, "/customers", shared.FlashSuccess, "Customer removed.")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	http.Error(w, httpx.UserMessage(err), httpx.StatusFor(err))
}
