package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/HenriqueProj/Web-App-BD/internal/catalog/products"
	"github.com/HenriqueProj/Web-App-BD/internal/platform/httpx"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/internal/view"
)

const (
	newOrderPath = "/orders/new"
	summaryPath  = "/orders/summary"
)

// Handler serves the order and payment pages.
type Handler struct {
	logger  *slog.Logger
	service *Service
	view    *view.Responder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, responder *view.Responder) *Handler {
	return &Handler{logger: logger, service: service, view: responder}
}

type customerPage struct {
	Action string
	CustNo string
	Error  string
}

type productsPage struct {
	CustNo         int64
	Products       []products.Product
	IdempotencyKey string
	Error          string
}

type summaryPage struct {
	CustNo    int64
	Summaries []Summary
}

func (h *Handler) askCustomer(w http.ResponseWriter, r *http.Request) {
	h.view.Page(w, r, http.StatusOK, "pages/order_customer.html", "New order", customerPage{Action: newOrderPath})
}

func (h *Handler) chooseCustomer(w http.ResponseWriter, r *http.Request) {
	custNo, ok := h.customerFromForm(w, r, newOrderPath, "New order")
	if !ok {
		return
	}
	http.Redirect(w, r, newOrderPath+"/"+strconv.FormatInt(custNo, 10), http.StatusSeeOther)
}

func (h *Handler) showProducts(w http.ResponseWriter, r *http.Request) {
	custNo, ok := h.customerFromPath(w, r)
	if !ok {
		return
	}
	h.renderProducts(w, r, http.StatusOK, custNo, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	custNo, ok := h.customerFromPath(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	order, err := h.service.Create(r.Context(), CreateOrderInput{
		CustNo:         custNo,
		Lines:          ParseQuantities(r.PostForm),
		IdempotencyKey: strings.TrimSpace(r.PostFormValue("idempotency_key")),
	})
	switch {
	case err == nil:
		h.view.RedirectWithFlash(w, r, "/", shared.FlashSuccess,
			"Order "+strconv.FormatInt(order.OrderNo, 10)+" created.")
	case errors.Is(err, shared.ErrValidation):
		h.renderProducts(w, r, http.StatusBadRequest, custNo, httpx.UserMessage(err))
	case errors.Is(err, shared.ErrConflict):
		h.view.RedirectWithFlash(w, r, "/", shared.FlashError, "This order was already submitted.")
	case errors.Is(err, ErrCustomerNotActive):
		h.view.RedirectWithFlash(w, r, newOrderPath, shared.FlashError, "Customer does not exist.")
	case errors.Is(err, shared.ErrNotFound):
		h.renderProducts(w, r, http.StatusNotFound, custNo, "A selected product no longer exists.")
	default:
		h.fail(w, r, "create order", err)
	}
}

func (h *Handler) renderProducts(w http.ResponseWriter, r *http.Request, status int, custNo int64, message string) {
	list, err := h.service.Products(r.Context())
	if err != nil {
		h.fail(w, r, "list products", err)
		return
	}
	if status == http.StatusOK && httpx.WantsJSON(r) {
		httpx.JSONList(w, list)
		return
	}
	h.view.Page(w, r, status, "pages/order_products.html", "Choose products", productsPage{
		CustNo:         custNo,
		Products:       list,
		IdempotencyKey: uuid.NewString(),
		Error:          message,
	})
}

func (h *Handler) unpaid(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUnpaid(r.Context())
	if err != nil {
		h.fail(w, r, "list unpaid orders", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSONList(w, list)
		return
	}
	h.view.Page(w, r, http.StatusOK, "pages/orders_unpaid.html", "Unpaid orders", map[string]any{
		"Orders": list,
	})
}

func (h *Handler) askSummary(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("cust_no"); raw != "" {
		custNo, err := parseCustNo(raw)
		if err != nil {
			h.renderAskSummary(w, r, http.StatusBadRequest, raw, "Customer number must be a positive integer.")
			return
		}
		h.renderSummary(w, r, custNo, raw)
		return
	}
	h.renderAskSummary(w, r, http.StatusOK, "", "")
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	custNo, ok := h.customerFromForm(w, r, summaryPath, "Payments")
	if !ok {
		return
	}
	h.renderSummary(w, r, custNo, strconv.FormatInt(custNo, 10))
}

func (h *Handler) renderSummary(w http.ResponseWriter, r *http.Request, custNo int64, raw string) {
	list, err := h.service.CustomerSummary(r.Context(), custNo)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.renderAskSummary(w, r, http.StatusNotFound, raw, "Customer does not exist.")
			return
		}
		h.fail(w, r, "order summary", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSONList(w, list)
		return
	}
	h.view.Page(w, r, http.StatusOK, "pages/orders_summary.html", "Payments", summaryPage{CustNo: custNo, Summaries: list})
}

func (h *Handler) renderAskSummary(w http.ResponseWriter, r *http.Request, status int, custNo, message string) {
	if status != http.StatusOK && httpx.WantsJSON(r) {
		httpx.Problem(w, status, http.StatusText(status), message)
		return
	}
	h.view.Page(w, r, status, "pages/order_customer.html", "Payments", customerPage{
		Action: summaryPath,
		CustNo: custNo,
		Error:  message,
	})
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	orderNo, err := strconv.ParseInt(chi.URLParam(r, "orderNo"), 10, 64)
	if err != nil || orderNo <= 0 {
		h.view.RedirectWithFlash(w, r, summaryPath, shared.FlashError, "Invalid order number.")
		return
	}
	payment, err := h.service.Pay(r.Context(), orderNo)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			h.view.RedirectWithFlash(w, r, summaryPath, shared.FlashError, "Order does not exist.")
		case errors.Is(err, shared.ErrConflict):
			h.view.RedirectWithFlash(w, r, summaryPath, shared.FlashError, "Order is already paid.")
		default:
			h.fail(w, r, "pay order", err)
		}
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, payment)
		return
	}
	h.view.Page(w, r, http.StatusOK, "pages/payment_receipt.html", "Payment", payment)
}

// customerFromForm reads cust_no from a posted form and re-renders the prompt when it
// is malformed or not an active customer.
func (h *Handler) customerFromForm(w http.ResponseWriter, r *http.Request, action, title string) (int64, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	raw := strings.TrimSpace(r.PostFormValue("cust_no"))
	page := customerPage{Action: action, CustNo: raw}
	custNo, err := parseCustNo(raw)
	if err != nil {
		page.Error = "Customer number must be a positive integer."
		h.view.Page(w, r, http.StatusBadRequest, "pages/order_customer.html", title, page)
		return 0, false
	}
	if err := h.service.CheckCustomer(r.Context(), custNo); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			page.Error = "Customer does not exist."
			h.view.Page(w, r, http.StatusNotFound, "pages/order_customer.html", title, page)
			return 0, false
		}
		h.fail(w, r, "check customer", err)
		return 0, false
	}
	return custNo, true
}

func (h *Handler) customerFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	custNo, err := parseCustNo(chi.URLParam(r, "custNo"))
	if err == nil {
		err = h.service.CheckCustomer(r.Context(), custNo)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, errInvalidCustNo) {
			h.view.RedirectWithFlash(w, r, newOrderPath, shared.FlashError, "Customer does not exist.")
			return 0, false
		}
		h.fail(w, r, "check customer", err)
		return 0, false
	}
	return custNo, true
}

var errInvalidCustNo = errors.New("invalid customer number")

func parseCustNo(raw string) (int64, error) {
	custNo, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || custNo <= 0 {
		return 0, errInvalidCustNo
	}
	return custNo, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	http.Error(w, httpx.UserMessage(err), httpx.StatusFor(err))
}
