package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/validate"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

const cacheNamespace = "customers"

var addMessages = validate.Messages{
	"name.required":          "Name is required.",
	"email.required":         "Email is required.",
	"email.email":            "Email format is invalid",
	"phone.phone9":           "Phone number must have 9 numeric digits",
	"address.postal_address": "Address format is invalid",
}

// Service coordinates customer operations.
type Service struct {
	repo        Repository
	validator   *validate.Validator
	logger      *slog.Logger
	audit       AuditPort
	cache       ListingCache
	metrics     EventCounter
	integration IntegrationHandler
}

// ServiceDeps groups optional collaborators. Nil members are skipped.
type ServiceDeps struct {
	Audit       AuditPort
	Cache       ListingCache
	Metrics     EventCounter
	Integration IntegrationHandler
}

// NewService constructs the customer service.
func NewService(repo Repository, v *validate.Validator, logger *slog.Logger, deps ServiceDeps) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		validator:   v,
		logger:      logger,
		audit:       deps.Audit,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		integration: deps.Integration,
	}
}

// Add validates and registers a new customer with the next free number.
func (s *Service) Add(ctx context.Context, input AddCustomerInput) (*Customer, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
	if err := s.validator.Struct(input, addMessages); err != nil {
		return nil, err
	}

	customer := Customer{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   optional(input.Phone),
		Address: optional(input.Address),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		custNo, err := tx.NextCustNo(ctx)
		if err != nil {
			return err
		}
		customer.CustNo = custNo
		return tx.Insert(ctx, customer)
	})
	if err != nil {
		return nil, fmt.Errorf("add customer: %w", err)
	}

	s.afterWrite(ctx, "customer.added", customer.CustNo, nil)
	return &customer, nil
}

// Anonymize replaces a customer's identity with the next masked name and email and
// clears phone and address. The row stays so historical orders keep their owner.
func (s *Service) Anonymize(ctx context.Context, custNo int64) (*Customer, error) {
	var updated *Customer
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockMasks(ctx); err != nil {
			return err
		}
		nameCounter, emailCounter, err := tx.MaxMaskCounters(ctx)
		if err != nil {
			return err
		}
		updated, err = tx.Anonymize(ctx, custNo, MaskedName(nameCounter+1), MaskedEmail(emailCounter+1))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("anonymize customer %d: %w", custNo, err)
	}

	s.afterWrite(ctx, "customer.anonymized", custNo, map[string]any{"masked_name": updated.Name})
	if s.integration != nil {
		if err := s.integration.HandleCustomerAnonymized(ctx, CustomerAnonymizedEvent{CustNo: custNo}); err != nil {
			s.logger.Warn("customer anonymized hook", slog.Int64("cust_no", custNo), slog.Any("error", err))
		}
	}
	return updated, nil
}

// ListActive returns customers that were never anonymized, ordered by name.
func (s *Service) ListActive(ctx context.Context) ([]Customer, error) {
	out := []Customer{}
	if s.cache == nil {
		list, err := s.repo.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		return append(out, list...), nil
	}
	err := s.cache.Fetch(ctx, cacheNamespace, "active", &out, func(ctx context.Context) (any, error) {
		return s.repo.ListActive(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IsActive reports whether custNo names an existing, non-anonymized customer.
func (s *Service) IsActive(ctx context.Context, custNo int64) (bool, error) {
	if custNo <= 0 {
		return false, nil
	}
	return s.repo.IsActive(ctx, custNo)
}

func (s *Service) afterWrite(ctx context.Context, action string, custNo int64, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx, cacheNamespace); err != nil {
			s.logger.Warn("bump customer cache", slog.Any("error", err))
		}
	}
	if s.metrics != nil {
		s.metrics.CountEvent(action)
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    shared.ActorFromContext(ctx),
			Action:   action,
			Entity:   "customer",
			EntityID: strconv.FormatInt(custNo, 10),
			Meta:     meta,
		})
		if err != nil {
			s.logger.Warn("audit customer", slog.String("action", action), slog.Any("error", err))
		}
	}
}
