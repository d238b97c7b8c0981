// Package events publishes back-office domain events to Kafka.
package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Topics.
const (
	TopicOrderEvents    = "backoffice.order.events"
	TopicCustomerEvents = "backoffice.customer.events"
)

// Event types.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderPaid          = "order.paid"
	TypeCustomerAnonymized = "customer.anonymized"
)

// Event is the JSON document written to Kafka.
type Event struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OrderNo    int64     `json:"order_no,omitempty"`
	CustNo     int64     `json:"cust_no"`
	Total      *string   `json:"total,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// eventID is derived from the type and subject so a re-published event keeps its id
// and consumers can drop duplicates.
func eventID(eventType string, subject int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", eventType, subject))).String()
}

// OrderCreated builds the order.created event.
func OrderCreated(orderNo, custNo int64, total decimal.Decimal, at time.Time) Event {
	return orderEvent(TypeOrderCreated, orderNo, custNo, total, at)
}

// OrderPaid builds the order.paid event.
func OrderPaid(orderNo, custNo int64, total decimal.Decimal, at time.Time) Event {
	return orderEvent(TypeOrderPaid, orderNo, custNo, total, at)
}

// CustomerAnonymized builds the customer.anonymized event. A customer can be
// anonymized more than once, so its id is random.
func CustomerAnonymized(custNo int64, at time.Time) Event {
	return Event{
		EventID:    uuid.NewString(),
		EventType:  TypeCustomerAnonymized,
		CustNo:     custNo,
		OccurredAt: at.UTC(),
	}
}

func orderEvent(eventType string, orderNo, custNo int64, total decimal.Decimal, at time.Time) Event {
	t := total.StringFixed(2)
	return Event{
		EventID:    eventID(eventType, orderNo),
		EventType:  eventType,
		OrderNo:    orderNo,
		CustNo:     custNo,
		Total:      &t,
		OccurredAt: at.UTC(),
	}
}
