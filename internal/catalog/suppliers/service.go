package suppliers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/validate"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// CacheNamespace keys the supplier listing cache.
const CacheNamespace = "suppliers"

var addMessages = validate.Messages{
	"tin.required":           "TIN is required.",
	"address.postal_address": "Address format is invalid",
	"date.iso_date":          "Date must use the YYYY-MM-DD format.",
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ListingCache memoizes listings between writes.
type ListingCache interface {
	Fetch(ctx context.Context, namespace, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context, namespace string) error
}

// Service coordinates supplier operations.
type Service struct {
	repo      Repository
	validator *validate.Validator
	logger    *slog.Logger
	audit     AuditPort
	cache     ListingCache
}

// NewService constructs the supplier service. audit and cache may be nil.
func NewService(repo Repository, v *validate.Validator, logger *slog.Logger, audit AuditPort, cache ListingCache) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, validator: v, logger: logger, audit: audit, cache: cache}
}

// List returns suppliers ordered by name.
func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	out := []Supplier{}
	if s.cache == nil {
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		return append(out, list...), nil
	}
	err := s.cache.Fetch(ctx, CacheNamespace, "all", &out, func(ctx context.Context) (any, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Add registers a supplier. Empty optional fields are stored as NULL; an unknown SKU
// fails with shared.ErrNotFound and a taken TIN with shared.ErrConflict.
func (s *Service) Add(ctx context.Context, input AddSupplierInput) (*Supplier, error) {
	input.TIN = strings.TrimSpace(input.TIN)
	input.Address = strings.TrimSpace(input.Address)
	input.Date = strings.TrimSpace(input.Date)
	if err := s.validator.Struct(input, addMessages); err != nil {
		return nil, err
	}

	supplier := Supplier{
		TIN:     input.TIN,
		Name:    optional(input.Name),
		Address: optional(input.Address),
		SKU:     optional(input.SKU),
	}
	if input.Date != "" {
		date, err := time.Parse(time.DateOnly, input.Date)
		if err != nil {
			return nil, shared.NewValidationError("date", addMessages["date.iso_date"])
		}
		supplier.Date = &date
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Insert(ctx, supplier)
	})
	if err != nil {
		return nil, fmt.Errorf("add supplier %s: %w", supplier.TIN, err)
	}
	s.afterWrite(ctx, "supplier.added", supplier.TIN, nil)
	return &supplier, nil
}

// Remove deletes a supplier together with its delivery records.
func (s *Service) Remove(ctx context.Context, tin string) error {
	var deliveries, deleted int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if deliveries, err = tx.DeleteDeliveries(ctx, tin); err != nil {
			return err
		}
		deleted, err = tx.Delete(ctx, tin)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove supplier %s: %w", tin, err)
	}
	if deleted > 0 {
		s.afterWrite(ctx, "supplier.removed", tin, map[string]any{"deliveries": deliveries})
	}
	return nil
}

func (s *Service) afterWrite(ctx context.Context, action, tin string, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx, CacheNamespace); err != nil {
			s.logger.Warn("bump supplier cache", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    shared.ActorFromContext(ctx),
			Action:   action,
			Entity:   "supplier",
			EntityID: tin,
			Meta:     meta,
		})
		if err != nil {
			s.logger.Warn("audit supplier", slog.String("action", action), slog.Any("error", err))
		}
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
