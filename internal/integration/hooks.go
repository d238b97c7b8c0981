// Package integration forwards committed order and customer events to Kafka and the
// background job queue.
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/HenriqueProj/Web-App-BD/internal/customers"
	"github.com/HenriqueProj/Web-App-BD/internal/events"
	"github.com/HenriqueProj/Web-App-BD/internal/orders"
)

// Publisher writes events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, key int64, evt events.Event) error
}

// ReceiptQueue schedules customer receipt mails.
type ReceiptQueue interface {
	EnqueueOrderReceipt(ctx context.Context, orderNo int64) (*asynq.TaskInfo, error)
	EnqueuePaymentReceipt(ctx context.Context, orderNo int64) (*asynq.TaskInfo, error)
}

// Hooks wires domain events from the order and customer services into downstream
// systems. Either collaborator may be nil.
type Hooks struct {
	publisher Publisher
	queue     ReceiptQueue
	logger    *slog.Logger
	now       func() time.Time
}

// NewHooks constructs integration hooks.
func NewHooks(publisher Publisher, queue ReceiptQueue, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{publisher: publisher, queue: queue, logger: logger, now: time.Now}
}

// HandleOrderCreated publishes order.created and schedules the order receipt.
func (h *Hooks) HandleOrderCreated(ctx context.Context, evt orders.OrderCreatedEvent) error {
	if h == nil {
		return nil
	}
	if evt.OrderNo <= 0 {
		return errors.New("integration: order number required")
	}
	at := evt.Date
	if at.IsZero() {
		at = h.now()
	}
	var errs []error
	if err := h.publish(ctx, events.TopicOrderEvents, evt.OrderNo, events.OrderCreated(evt.OrderNo, evt.CustNo, evt.Total, at)); err != nil {
		errs = append(errs, err)
	}
	if h.queue != nil {
		if _, err := h.queue.EnqueueOrderReceipt(ctx, evt.OrderNo); err != nil {
			errs = append(errs, fmt.Errorf("enqueue order receipt: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HandleOrderPaid publishes order.paid and schedules the payment receipt.
func (h *Hooks) HandleOrderPaid(ctx context.Context, evt orders.OrderPaidEvent) error {
	if h == nil {
		return nil
	}
	if evt.OrderNo <= 0 {
		return errors.New("integration: order number required")
	}
	var errs []error
	if err := h.publish(ctx, events.TopicOrderEvents, evt.OrderNo, events.OrderPaid(evt.OrderNo, evt.CustNo, evt.Total, h.now())); err != nil {
		errs = append(errs, err)
	}
	if h.queue != nil {
		if _, err := h.queue.EnqueuePaymentReceipt(ctx, evt.OrderNo); err != nil {
			errs = append(errs, fmt.Errorf("enqueue payment receipt: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HandleCustomerAnonymized publishes customer.anonymized.
func (h *Hooks) HandleCustomerAnonymized(ctx context.Context, evt customers.CustomerAnonymizedEvent) error {
	if h == nil {
		return nil
	}
	return h.publish(ctx, events.TopicCustomerEvents, evt.CustNo, events.CustomerAnonymized(evt.CustNo, h.now()))
}

func (h *Hooks) publish(ctx context.Context, topic string, key int64, evt events.Event) error {
	if h.publisher == nil {
		return nil
	}
	if err := h.publisher.Publish(ctx, topic, key, evt); err != nil {
		return fmt.Errorf("publish %s: %w", evt.EventType, err)
	}
	h.logger.Debug("event published", slog.String("event_type", evt.EventType), slog.Int64("key", key))
	return nil
}

var (
	_ orders.IntegrationHandler    = (*Hooks)(nil)
	_ customers.IntegrationHandler = (*Hooks)(nil)
)
