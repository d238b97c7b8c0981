package products

import (
	"context"

	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ListingCache memoizes listings between writes.
type ListingCache interface {
	Fetch(ctx context.Context, namespace, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context, namespace string) error
}

// EventCounter counts business events for metrics.
type EventCounter interface {
	CountEvent(event string)
}
