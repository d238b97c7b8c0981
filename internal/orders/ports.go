package orders

import (
	"context"

	"github.com/HenriqueProj/Web-App-BD/internal/catalog/products"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// CustomerChecker answers whether a customer may place and view orders.
type CustomerChecker interface {
	IsActive(ctx context.Context, custNo int64) (bool, error)
}

// ProductCatalog lists the products offered on the order form.
type ProductCatalog interface {
	List(ctx context.Context) ([]products.Product, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// EventCounter counts business events for metrics.
type EventCounter interface {
	CountEvent(event string)
}

// IdempotencyPort guards against replayed order submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// IntegrationHandler receives order events for downstream systems.
type IntegrationHandler interface {
	HandleOrderCreated(ctx context.Context, evt OrderCreatedEvent) error
	HandleOrderPaid(ctx context.Context, evt OrderPaidEvent) error
}
