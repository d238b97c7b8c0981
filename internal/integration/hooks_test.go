package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenriqueProj/Web-App-BD/internal/customers"
	"github.com/HenriqueProj/Web-App-BD/internal/events"
	"github.com/HenriqueProj/Web-App-BD/internal/orders"
)

type published struct {
	topic string
	key   int64
	evt   events.Event
}

type stubPublisher struct {
	sent []published
	err  error
}

func (p *stubPublisher) Publish(_ context.Context, topic string, key int64, evt events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, key: key, evt: evt})
	return nil
}

type stubQueue struct {
	orderReceipts   []int64
	paymentReceipts []int64
}

func (q *stubQueue) EnqueueOrderReceipt(_ context.Context, orderNo int64) (*asynq.TaskInfo, error) {
	q.orderReceipts = append(q.orderReceipts, orderNo)
	return &asynq.TaskInfo{}, nil
}

func (q *stubQueue) EnqueuePaymentReceipt(_ context.Context, orderNo int64) (*asynq.TaskInfo, error) {
	q.paymentReceipts = append(q.paymentReceipts, orderNo)
	return &asynq.TaskInfo{}, nil
}

func TestOrderCreatedFansOut(t *testing.T) {
	pub := &stubPublisher{}
	queue := &stubQueue{}
	hooks := NewHooks(pub, queue, nil)
	date := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)

	err := hooks.HandleOrderCreated(context.Background(), orders.OrderCreatedEvent{
		OrderNo: 4, CustNo: 2, Date: date, Total: decimal.RequireFromString("12.5"),
	})
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, events.TopicOrderEvents, pub.sent[0].topic)
	assert.Equal(t, int64(4), pub.sent[0].key)
	assert.Equal(t, events.TypeOrderCreated, pub.sent[0].evt.EventType)
	require.NotNil(t, pub.sent[0].evt.Total)
	assert.Equal(t, "12.50", *pub.sent[0].evt.Total)
	assert.Equal(t, date, pub.sent[0].evt.OccurredAt)
	assert.Equal(t, []int64{4}, queue.orderReceipts)
}

func TestOrderPaidStillEnqueuesWhenPublishFails(t *testing.T) {
	boom := errors.New("no brokers")
	queue := &stubQueue{}
	hooks := NewHooks(&stubPublisher{err: boom}, queue, nil)

	err := hooks.HandleOrderPaid(context.Background(), orders.OrderPaidEvent{OrderNo: 9, CustNo: 1})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int64{9}, queue.paymentReceipts)
}

func TestCustomerAnonymizedPublishes(t *testing.T) {
	pub := &stubPublisher{}
	hooks := NewHooks(pub, nil, nil)
	hooks.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, hooks.HandleCustomerAnonymized(context.Background(), customers.CustomerAnonymizedEvent{CustNo: 6}))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, events.TopicCustomerEvents, pub.sent[0].topic)
	assert.Equal(t, int64(6), pub.sent[0].evt.CustNo)
}

func TestHooksWithoutCollaborators(t *testing.T) {
	hooks := NewHooks(nil, nil, nil)
	assert.NoError(t, hooks.HandleOrderCreated(context.Background(), orders.OrderCreatedEvent{OrderNo: 1}))
	assert.Error(t, hooks.HandleOrderPaid(context.Background(), orders.OrderPaidEvent{}))

	var nilHooks *Hooks
	assert.NoError(t, nilHooks.HandleOrderCreated(context.Background(), orders.OrderCreatedEvent{OrderNo: 1}))
}
