package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HenriqueProj/Web-App-BD/internal/catalog/products"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

const idempotencyModule = "orders"

// ErrCustomerNotActive reports an unknown or anonymized customer. It matches
// shared.ErrNotFound so callers that only map status codes keep answering 404.
var ErrCustomerNotActive = fmt.Errorf("customer is not active: %w", shared.ErrNotFound)

// Service coordinates order placement and payment.
type Service struct {
	repo        Repository
	customers   CustomerChecker
	catalog     ProductCatalog
	logger      *slog.Logger
	audit       AuditPort
	metrics     EventCounter
	idempotency IdempotencyPort
	integration IntegrationHandler
	now         func() time.Time
}

// ServiceDeps groups optional collaborators. Nil members are skipped.
type ServiceDeps struct {
	Catalog     ProductCatalog
	Audit       AuditPort
	Metrics     EventCounter
	Idempotency IdempotencyPort
	Integration IntegrationHandler
	Clock       func() time.Time
}

// NewService constructs the order service.
func NewService(repo Repository, customers CustomerChecker, logger *slog.Logger, deps ServiceDeps) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        repo,
		customers:   customers,
		catalog:     deps.Catalog,
		logger:      logger,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		idempotency: deps.Idempotency,
		integration: deps.Integration,
		now:         now,
	}
}

// Create places an order for an active customer. Lines with a non-positive quantity
// are dropped and repeated SKUs are merged before anything is written.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*Order, error) {
	lines := NormalizeLines(input.Lines)
	if len(lines) == 0 {
		return nil, shared.NewValidationError("lines", "no items selected")
	}
	for _, line := range lines {
		if line.Quantity > MaxQuantity {
			return nil, shared.NewValidationError("lines", fmt.Sprintf("quantity for %s is too large", line.SKU))
		}
	}
	if err := s.requireActive(ctx, input.CustNo); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, idempotencyModule); err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
	}

	order := Order{CustNo: input.CustNo, Date: s.now(), Lines: lines}
	var total decimal.Decimal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		orderNo, err := tx.NextOrderNo(ctx)
		if err != nil {
			return err
		}
		order.OrderNo = orderNo
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := tx.InsertLine(ctx, orderNo, line); err != nil {
				return fmt.Errorf("line %s: %w", line.SKU, err)
			}
		}
		total, err = tx.OrderTotal(ctx, orderNo)
		return err
	})
	if err != nil {
		s.releaseKey(ctx, input.IdempotencyKey)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.afterWrite(ctx, "order.created", order.OrderNo, map[string]any{
		"cust_no": order.CustNo,
		"lines":   len(lines),
		"total":   total.StringFixed(2),
	})
	if s.integration != nil {
		evt := OrderCreatedEvent{OrderNo: order.OrderNo, CustNo: order.CustNo, Date: order.Date, Lines: lines, Total: total}
		if err := s.integration.HandleOrderCreated(ctx, evt); err != nil {
			s.logger.Warn("order created hook", slog.Int64("order_no", order.OrderNo), slog.Any("error", err))
		}
	}
	return &order, nil
}

// ListUnpaid returns every order without a payment.
func (s *Service) ListUnpaid(ctx context.Context) ([]UnpaidOrder, error) {
	list, err := s.repo.ListUnpaid(ctx)
	if err != nil {
		return nil, err
	}
	return append([]UnpaidOrder{}, list...), nil
}

// CustomerSummary totals the unpaid orders of an active customer.
func (s *Service) CustomerSummary(ctx context.Context, custNo int64) ([]Summary, error) {
	if err := s.requireActive(ctx, custNo); err != nil {
		return nil, fmt.Errorf("order summary: %w", err)
	}
	list, err := s.repo.CustomerSummary(ctx, custNo)
	if err != nil {
		return nil, err
	}
	return append([]Summary{}, list...), nil
}

// Pay records the payment of an unpaid order.
func (s *Service) Pay(ctx context.Context, orderNo int64) (*Payment, error) {
	var (
		payment Payment
		total   decimal.Decimal
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		payment, err = tx.LockOrder(ctx, orderNo)
		if err != nil {
			return err
		}
		paid, err := tx.IsPaid(ctx, orderNo)
		if err != nil {
			return err
		}
		if paid {
			return fmt.Errorf("order %d already paid: %w", orderNo, shared.ErrConflict)
		}
		if total, err = tx.OrderTotal(ctx, orderNo); err != nil {
			return err
		}
		return tx.InsertPayment(ctx, payment)
	})
	if err != nil {
		return nil, fmt.Errorf("pay order %d: %w", orderNo, err)
	}

	s.afterWrite(ctx, "order.paid", orderNo, map[string]any{"cust_no": payment.CustNo, "total": total.StringFixed(2)})
	if s.integration != nil {
		evt := OrderPaidEvent{OrderNo: orderNo, CustNo: payment.CustNo, Total: total}
		if err := s.integration.HandleOrderPaid(ctx, evt); err != nil {
			s.logger.Warn("order paid hook", slog.Int64("order_no", orderNo), slog.Any("error", err))
		}
	}
	return &payment, nil
}

// Receipt loads an order with priced lines for confirmation mails.
func (s *Service) Receipt(ctx context.Context, orderNo int64) (*Receipt, error) {
	return s.repo.Receipt(ctx, orderNo)
}

// Products lists what can be ordered.
func (s *Service) Products(ctx context.Context) ([]products.Product, error) {
	if s.catalog == nil {
		return []products.Product{}, nil
	}
	list, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	return append([]products.Product{}, list...), nil
}

// CheckCustomer returns ErrNotFound unless custNo is an active customer.
func (s *Service) CheckCustomer(ctx context.Context, custNo int64) error {
	return s.requireActive(ctx, custNo)
}

func (s *Service) requireActive(ctx context.Context, custNo int64) error {
	if custNo <= 0 {
		return fmt.Errorf("customer %d: %w", custNo, ErrCustomerNotActive)
	}
	active, err := s.customers.IsActive(ctx, custNo)
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("customer %d: %w", custNo, ErrCustomerNotActive)
	}
	return nil
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if key == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}

func (s *Service) afterWrite(ctx context.Context, action string, orderNo int64, meta map[string]any) {
	if s.metrics != nil {
		s.metrics.CountEvent(action)
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    shared.ActorFromContext(ctx),
			Action:   action,
			Entity:   "order",
			EntityID: strconv.FormatInt(orderNo, 10),
			Meta:     meta,
		})
		if err != nil {
			s.logger.Warn("audit order", slog.String("action", action), slog.Any("error", err))
		}
	}
}
