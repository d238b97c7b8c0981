package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/validate"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	view           *view.Responder
	sessionManager *shared.SessionManager
	validator      *validate.Validator
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, responder *view.Responder, sessions *shared.SessionManager, v *validate.Validator) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		view:           responder,
		sessionManager: sessions,
		validator:      v,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `form:"username" validate:"required,max=64"`
	Password string `form:"password" validate:"required"`
}

var loginMessages = validate.Messages{
	"username.required": "Username is required.",
	"username.max":      "Username is too long.",
	"password.required": "Password is required.",
}

type loginPage struct {
	Username string
	Error    string
}

const invalidCredentials = "Invalid username or password."

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.view.Page(w, r, http.StatusOK, "pages/login.html", "Sign in", loginPage{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(form, loginMessages); err != nil {
		h.view.Page(w, r, http.StatusBadRequest, "pages/login.html", "Sign in", loginPage{Username: form.Username, Error: err.Error()})
		return
	}

	op, err := h.service.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("authenticate", slog.Any("error", err))
		}
		h.view.Page(w, r, http.StatusBadRequest, "pages/login.html", "Sign in", loginPage{Username: form.Username, Error: invalidCredentials})
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sess.SetOperator(op.Username)
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, op.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.view.RedirectWithFlash(w, r, "/", shared.FlashSuccess, "Welcome back, "+op.Username+".")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
