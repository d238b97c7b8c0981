package app

import (
	"io/fs"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HenriqueProj/Web-App-BD/internal/auth"
	"github.com/HenriqueProj/Web-App-BD/internal/catalog/products"
	"github.com/HenriqueProj/Web-App-BD/internal/catalog/suppliers"
	"github.com/HenriqueProj/Web-App-BD/internal/customers"
	"github.com/HenriqueProj/Web-App-BD/internal/observability"
	"github.com/HenriqueProj/Web-App-BD/internal/orders"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/internal/view"
	"github.com/HenriqueProj/Web-App-BD/jobs"
	"github.com/HenriqueProj/Web-App-BD/web"
)

func init() {
	if mime.TypeByExtension(".css") == "" {
		_ = mime.AddExtensionType(".css", "text/css; charset=utf-8")
	}
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Responder        *view.Responder
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	ProductsHandler  *products.Handler
	SuppliersHandler *suppliers.Handler
	CustomersHandler *customers.Handler
	OrdersHandler    *orders.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the back-office defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			params.Responder.Page(w, r, http.StatusOK, "pages/home.html", "Back office", nil)
		})
		if params.ProductsHandler != nil {
			params.ProductsHandler.MountRoutes(r)
		}
		if params.SuppliersHandler != nil {
			params.SuppliersHandler.MountRoutes(r)
		}
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountRoutes(r)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers keep static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
