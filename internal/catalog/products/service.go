package products

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/validate"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// CacheNamespace keys the product listing cache.
const CacheNamespace = "products"

// suppliersNamespace is bumped on removal because supplier rows lose their SKU.
const suppliersNamespace = "suppliers"

const (
	msgPriceInvalid = "Price should be a non-negative number."
	msgPriceTooBig  = "Price must be below 100000000."
)

var (
	addMessages = validate.Messages{
		"sku.required":       "SKU is required.",
		"name.required":      "Name is required.",
		"price.numeric_text": msgPriceInvalid,
	}
	editMessages = validate.Messages{
		"price.required":          "Price is required.",
		"price.numeric_text":      msgPriceInvalid,
		"description.not_numeric": "Description should be a string.",
	}
)

// Service coordinates product operations.
type Service struct {
	repo      Repository
	validator *validate.Validator
	logger    *slog.Logger
	audit     AuditPort
	cache     ListingCache
	metrics   EventCounter
}

// ServiceDeps groups optional collaborators. Nil members are skipped.
type ServiceDeps struct {
	Audit   AuditPort
	Cache   ListingCache
	Metrics EventCounter
}

// NewService constructs the product service.
func NewService(repo Repository, v *validate.Validator, logger *slog.Logger, deps ServiceDeps) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, validator: v, logger: logger, audit: deps.Audit, cache: deps.Cache, metrics: deps.Metrics}
}

// List returns every product ordered by name.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	out := []Product{}
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

// Get loads one product.
func (s *Service) Get(ctx context.Context, sku string) (*Product, error) {
	return s.repo.Get(ctx, sku)
}

// Add registers a product. A missing price is stored as 0.00.
func (s *Service) Add(ctx context.Context, input AddProductInput) (*Product, error) {
	input.SKU = strings.TrimSpace(input.SKU)
	input.Name = strings.TrimSpace(input.Name)
	input.Price = strings.TrimSpace(input.Price)
	if err := s.validator.Struct(input, addMessages); err != nil {
		return nil, err
	}
	price := decimal.Zero
	if input.Price != "" {
		var err error
		if price, err = parsePrice(input.Price); err != nil {
			return nil, err
		}
	}

	product := Product{
		SKU:         input.SKU,
		Name:        input.Name,
		Description: optional(input.Description),
		Price:       price,
		EAN:         optional(input.EAN),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Insert(ctx, product)
	})
	if err != nil {
		return nil, fmt.Errorf("add product %s: %w", product.SKU, err)
	}
	s.afterWrite(ctx, "product.added", product.SKU, nil, CacheNamespace)
	return &product, nil
}

// Edit changes price and description. Checks run in order and the first failure wins:
// price present, price numeric, description not purely digits.
func (s *Service) Edit(ctx context.Context, sku string, input EditProductInput) (*Product, error) {
	input.Price = strings.TrimSpace(input.Price)
	input.Description = strings.TrimSpace(input.Description)
	if err := s.validator.Struct(input, editMessages); err != nil {
		return nil, err
	}
	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}
	description := optional(input.Description)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePriceDescription(ctx, sku, price, description)
	})
	if err != nil {
		return nil, fmt.Errorf("edit product %s: %w", sku, err)
	}
	s.afterWrite(ctx, "product.edited", sku, map[string]any{"price": price.StringFixed(2)}, CacheNamespace)
	return s.repo.Get(ctx, sku)
}

// Remove deletes a product after detaching suppliers and dropping order lines that
// reference it. Orders themselves are kept. Removing an unknown SKU is a no-op.
func (s *Service) Remove(ctx context.Context, sku string) error {
	var detached, lines, deleted int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if detached, err = tx.DetachSuppliers(ctx, sku); err != nil {
			return err
		}
		if lines, err = tx.DeleteOrderLines(ctx, sku); err != nil {
			return err
		}
		deleted, err = tx.Delete(ctx, sku)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove product %s: %w", sku, err)
	}
	if deleted == 0 {
		return nil
	}
	s.afterWrite(ctx, "product.removed", sku, map[string]any{
		"suppliers_detached": detached,
		"order_lines":        lines,
	}, CacheNamespace, suppliersNamespace)
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Zero, shared.NewValidationError("price", msgPriceInvalid)
	}
	price = price.Round(2)
	if price.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, shared.NewValidationError("price", msgPriceTooBig)
	}
	return price, nil
}

func (s *Service) afterWrite(ctx context.Context, action, sku string, meta map[string]any, namespaces ...string) {
	if s.cache != nil {
		for _, ns := range namespaces {
			if err := s.cache.Bump(ctx, ns); err != nil {
				s.logger.Warn("bump cache", slog.String("namespace", ns), slog.Any("error", err))
			}
		}
	}
	if s.metrics != nil {
		s.metrics.CountEvent(action)
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    shared.ActorFromContext(ctx),
			Action:   action,
			Entity:   "product",
			EntityID: sku,
			Meta:     meta,
		})
		if err != nil {
			s.logger.Warn("audit product", slog.String("action", action), slog.Any("error", err))
		}
	}
}
