package app

import (
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/HenriqueProj/Web-App-BD/internal/auth"
	"github.com/HenriqueProj/Web-App-BD/internal/catalog/products"
	"github.com/HenriqueProj/Web-App-BD/internal/catalog/suppliers"
	"github.com/HenriqueProj/Web-App-BD/internal/customers"
	"github.com/HenriqueProj/Web-App-BD/internal/events"
	"github.com/HenriqueProj/Web-App-BD/internal/integration"
	"github.com/HenriqueProj/Web-App-BD/internal/keys"
	"github.com/HenriqueProj/Web-App-BD/internal/observability"
	"github.com/HenriqueProj/Web-App-BD/internal/orders"
	"github.com/HenriqueProj/Web-App-BD/internal/platform/cache"
	"github.com/HenriqueProj/Web-App-BD/internal/platform/validate"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/internal/view"
	"github.com/HenriqueProj/Web-App-BD/jobs"
)

// SessionCookie names the back-office session cookie.
const SessionCookie = "backoffice_session"

// Dependencies are the connections the HTTP application is built on. Producer and
// Jobs may be nil, which disables event publishing and receipt mails.
type Dependencies struct {
	Config    *Config
	Logger    *slog.Logger
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Producer  *events.Producer
	Jobs      *jobs.Client
	Inspector *asynq.Inspector
}

// Application is the assembled HTTP application.
type Application struct {
	Handler   http.Handler
	Metrics   *observability.Metrics
	Customers *customers.Service
	Products  *products.Service
	Suppliers *suppliers.Service
	Orders    *orders.Service
}

// Build wires repositories, services and handlers into the router.
func Build(deps Dependencies) (*Application, error) {
	logger := deps.Logger
	cfg := deps.Config

	engine, err := view.NewEngine()
	if err != nil {
		return nil, err
	}
	sessions := shared.NewSessionManager(deps.Redis, SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrf := shared.NewCSRFManager(cfg.CSRFSecret)
	responder := view.NewResponder(engine, csrf, logger)
	validator := validate.New()
	metrics := observability.NewMetrics()

	auditLogger := shared.NewAuditLogger(deps.Pool)
	idempotency := shared.NewIdempotencyStore(deps.Pool)
	listing := cache.NewListing(deps.Redis, cfg.CacheTTL, logger)
	alloc := keys.NewAllocator()

	var (
		publisher integration.Publisher
		queue     integration.ReceiptQueue
	)
	if deps.Producer != nil {
		publisher = deps.Producer
	}
	if deps.Jobs != nil {
		queue = deps.Jobs
	}
	hooks := integration.NewHooks(publisher, queue, logger)

	productService := products.NewService(products.NewRepository(deps.Pool), validator, logger, products.ServiceDeps{
		Audit:   auditLogger,
		Cache:   listing,
		Metrics: metrics,
	})
	supplierService := suppliers.NewService(suppliers.NewRepository(deps.Pool), validator, logger, auditLogger, listing)
	customerService := customers.NewService(customers.NewRepository(deps.Pool, alloc), validator, logger, customers.ServiceDeps{
		Audit:       auditLogger,
		Cache:       listing,
		Metrics:     metrics,
		Integration: hooks,
	})
	orderService := orders.NewService(orders.NewRepository(deps.Pool, alloc), customerService, logger, orders.ServiceDeps{
		Catalog:     productService,
		Audit:       auditLogger,
		Metrics:     metrics,
		Idempotency: idempotency,
		Integration: hooks,
	})

	var inspector jobs.QueueInspector
	if deps.Inspector != nil {
		inspector = deps.Inspector
	}

	router := NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		Responder:        responder,
		SessionManager:   sessions,
		CSRFManager:      csrf,
		AuthHandler:      auth.NewHandler(logger, auth.NewService(auth.NewRepository(deps.Pool)), responder, sessions, validator),
		ProductsHandler:  products.NewHandler(logger, productService, responder),
		SuppliersHandler: suppliers.NewHandler(logger, supplierService, responder),
		CustomersHandler: customers.NewHandler(logger, customerService, responder),
		OrdersHandler:    orders.NewHandler(logger, orderService, responder),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})
	return &Application{
		Handler:   router,
		Metrics:   metrics,
		Customers: customerService,
		Products:  productService,
		Suppliers: supplierService,
		Orders:    orderService,
	}, nil
}
