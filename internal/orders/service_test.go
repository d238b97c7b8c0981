package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenriqueProj/Web-App-BD/internal/catalog/products"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

type memState struct {
	orders   map[int64]Order
	lines    map[int64][]LineItem
	payments map[int64]Payment
}

func (s memState) clone() memState {
	out := memState{
		orders:   maps.Clone(s.orders),
		lines:    make(map[int64][]LineItem, len(s.lines)),
		payments: maps.Clone(s.payments),
	}
	for k, v := range s.lines {
		out.lines[k] = slices.Clone(v)
	}
	return out
}

// memRepository keeps orders in memory. WithTx stages writes on a copy that is only
// published when fn succeeds.
type memRepository struct {
	state    memState
	prices   map[string]decimal.Decimal
	lineErr  error
	payCalls int
}

func newMemRepository(prices map[string]string) *memRepository {
	repo := &memRepository{
		state: memState{
			orders:   map[int64]Order{},
			lines:    map[int64][]LineItem{},
			payments: map[int64]Payment{},
		},
		prices: map[string]decimal.Decimal{},
	}
	for sku, p := range prices {
		repo.prices[sku] = decimal.RequireFromString(p)
	}
	return repo
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := m.state.clone()
	if err := fn(ctx, &memTx{parent: m, state: staged}); err != nil {
		return err
	}
	m.state = staged
	return nil
}

func (m *memRepository) ListUnpaid(context.Context) ([]UnpaidOrder, error) {
	var out []UnpaidOrder
	for no, o := range m.state.orders {
		if _, paid := m.state.payments[no]; !paid {
			out = append(out, UnpaidOrder{OrderNo: no, CustNo: o.CustNo})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNo < out[j].OrderNo })
	return out, nil
}

func (m *memRepository) CustomerSummary(_ context.Context, custNo int64) ([]Summary, error) {
	var out []Summary
	for no, o := range m.state.orders {
		if _, paid := m.state.payments[no]; paid || o.CustNo != custNo || len(m.state.lines[no]) == 0 {
			continue
		}
		s := Summary{OrderNo: no, CustNo: custNo, TotalValue: m.total(m.state, no)}
		for _, l := range m.state.lines[no] {
			s.TotalQuantity += int64(l.Quantity)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNo < out[j].OrderNo })
	return out, nil
}

func (m *memRepository) Receipt(_ context.Context, orderNo int64) (*Receipt, error) {
	o, ok := m.state.orders[orderNo]
	if !ok {
		return nil, fmt.Errorf("load receipt: %w", shared.ErrNotFound)
	}
	_, paid := m.state.payments[orderNo]
	return &Receipt{OrderNo: orderNo, CustNo: o.CustNo, Date: o.Date, Total: m.total(m.state, orderNo), Paid: paid}, nil
}

func (m *memRepository) total(state memState, orderNo int64) decimal.Decimal {
	total := decimal.Zero
	for _, l := range state.lines[orderNo] {
		total = total.Add(m.prices[l.SKU].Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

type memTx struct {
	parent *memRepository
	state  memState
}

func (t *memTx) NextOrderNo(context.Context) (int64, error) {
	var max int64
	for k := range t.state.orders {
		if k > max {
			max = k
		}
	}
	return max + 1, nil
}

func (t *memTx) InsertOrder(_ context.Context, o Order) error {
	if _, ok := t.state.orders[o.OrderNo]; ok {
		return fmt.Errorf("insert order: %w", shared.ErrConflict)
	}
	o.Lines = nil
	t.state.orders[o.OrderNo] = o
	return nil
}

func (t *memTx) InsertLine(_ context.Context, orderNo int64, line LineItem) error {
	if t.parent.lineErr != nil {
		return t.parent.lineErr
	}
	if _, ok := t.parent.prices[line.SKU]; !ok {
		return fmt.Errorf("insert order line: referenced row missing: %w", shared.ErrNotFound)
	}
	t.state.lines[orderNo] = append(t.state.lines[orderNo], line)
	return nil
}

func (t *memTx) OrderTotal(_ context.Context, orderNo int64) (decimal.Decimal, error) {
	return t.parent.total(t.state, orderNo), nil
}

func (t *memTx) LockOrder(_ context.Context, orderNo int64) (Payment, error) {
	o, ok := t.state.orders[orderNo]
	if !ok {
		return Payment{}, fmt.Errorf("lock order: %w", shared.ErrNotFound)
	}
	return Payment{OrderNo: orderNo, CustNo: o.CustNo}, nil
}

func (t *memTx) IsPaid(_ context.Context, orderNo int64) (bool, error) {
	_, ok := t.state.payments[orderNo]
	return ok, nil
}

func (t *memTx) InsertPayment(_ context.Context, p Payment) error {
	t.parent.payCalls++
	if _, ok := t.state.payments[p.OrderNo]; ok {
		return fmt.Errorf("insert payment: %w", shared.ErrConflict)
	}
	t.state.payments[p.OrderNo] = p
	return nil
}

type activeSet map[int64]bool

func (a activeSet) IsActive(_ context.Context, custNo int64) (bool, error) { return a[custNo], nil }

type memKeys struct {
	seen    map[string]bool
	deleted []string
}

func (k *memKeys) CheckAndInsert(_ context.Context, key, _ string) error {
	if k.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	k.seen[key] = true
	return nil
}

func (k *memKeys) Delete(_ context.Context, key string) error {
	delete(k.seen, key)
	k.deleted = append(k.deleted, key)
	return nil
}

type recordingHooks struct {
	created []OrderCreatedEvent
	paid    []OrderPaidEvent
	err     error
}

func (h *recordingHooks) HandleOrderCreated(_ context.Context, evt OrderCreatedEvent) error {
	h.created = append(h.created, evt)
	return h.err
}

func (h *recordingHooks) HandleOrderPaid(_ context.Context, evt OrderPaidEvent) error {
	h.paid = append(h.paid, evt)
	return h.err
}

type recordingAudit struct{ logs []shared.AuditLog }

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type countingMetrics map[string]int

func (c countingMetrics) CountEvent(event string) { c[event]++ }

type staticCatalog []products.Product

func (c staticCatalog) List(context.Context) ([]products.Product, error) { return c, nil }

var fixedNow = time.Date(2024, 5, 17, 15, 4, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo Repository, active CustomerChecker, deps ServiceDeps) *Service {
	deps.Clock = func() time.Time { return fixedNow }
	return NewService(repo, active, testLogger(), deps)
}

func TestCreateRejectsEmptySelections(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "5.00"})
	svc := newTestService(repo, activeSet{1: true}, ServiceDeps{})

	for _, lines := range [][]LineItem{nil, {{SKU: "P1", Quantity: 0}}, {{SKU: "P1", Quantity: -3}}} {
		_, err := svc.Create(context.Background(), CreateOrderInput{CustNo: 1, Lines: lines})
		require.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, "no items selected", err.Error())
	}
	assert.Empty(t, repo.state.orders)
}

func TestCreateDropsZeroLinesAndSummarizes(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "5.00", "P2": "7.50"})
	hooks := &recordingHooks{}
	metrics := countingMetrics{}
	svc := newTestService(repo, activeSet{1: true}, ServiceDeps{Integration: hooks, Metrics: metrics})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustNo: 1,
		Lines:  []LineItem{{SKU: "P1", Quantity: 2}, {SKU: "P2", Quantity: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.OrderNo)
	assert.Equal(t, fixedNow, order.Date)
	assert.Equal(t, []LineItem{{SKU: "P1", Quantity: 2}}, repo.state.lines[1])

	summary, err := svc.CustomerSummary(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "10.00", summary[0].TotalValue.StringFixed(2))
	assert.Equal(t, int64(2), summary[0].TotalQuantity)

	require.Len(t, hooks.created, 1)
	assert.Equal(t, "10.00", hooks.created[0].Total.StringFixed(2))
	assert.Equal(t, 1, metrics["order.created"])
}

func TestCreateMergesDuplicateSKUs(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "1.00", "P2": "2.00"})
	svc := newTestService(repo, activeSet{4: true}, ServiceDeps{})

	_, err := svc.Create(context.Background(), CreateOrderInput{
		CustNo: 4,
		Lines:  []LineItem{{SKU: "P2", Quantity: 1}, {SKU: "P1", Quantity: 2}, {SKU: "P2", Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{SKU: "P2", Quantity: 4}, {SKU: "P1", Quantity: 2}}, repo.state.lines[1])
}

func TestCreateRejectsOversizedMergedQuantity(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "1.00"})
	svc := newTestService(repo, activeSet{1: true}, ServiceDeps{})

	_, err := svc.Create(context.Background(), CreateOrderInput{
		CustNo: 1,
		Lines:  []LineItem{{SKU: "P1", Quantity: math.MaxInt}, {SKU: "P1", Quantity: 2}},
	})
	var vErr *shared.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "quantity for P1 is too large", vErr.Message)

	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustNo: 1,
		Lines:  []LineItem{{SKU: "P1", Quantity: MaxQuantity}, {SKU: "P1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.state.orders)
}

func TestCreateRequiresActiveCustomer(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "1.00"})
	svc := newTestService(repo, activeSet{2: false}, ServiceDeps{})

	for _, custNo := range []int64{0, 2, 99} {
		_, err := svc.Create(context.Background(), CreateOrderInput{CustNo: custNo, Lines: []LineItem{{SKU: "P1", Quantity: 1}}})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, err, ErrCustomerNotActive)
	}
	assert.Empty(t, repo.state.orders)
}

func TestCreateUnknownSKURollsBack(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "1.00"})
	keys := &memKeys{seen: map[string]bool{}}
	svc := newTestService(repo, activeSet{1: true}, ServiceDeps{Idempotency: keys})

	_, err := svc.Create(context.Background(), CreateOrderInput{
		CustNo:         1,
		Lines:          []LineItem{{SKU: "P1", Quantity: 1}, {SKU: "GONE", Quantity: 1}},
		IdempotencyKey: "k1",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.state.orders)
	assert.Empty(t, repo.state.lines)
	assert.Equal(t, []string{"k1"}, keys.deleted)
	assert.False(t, keys.seen["k1"])
}

func TestCreateRejectsReplayedKey(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "1.00"})
	keys := &memKeys{seen: map[string]bool{}}
	svc := newTestService(repo, activeSet{1: true}, ServiceDeps{Idempotency: keys})
	input := CreateOrderInput{CustNo: 1, Lines: []LineItem{{SKU: "P1", Quantity: 1}}, IdempotencyKey: "same"}

	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Len(t, repo.state.orders, 1)
}

func TestCreateHookFailureDoesNotFailRequest(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "1.00"})
	hooks := &recordingHooks{err: errors.New("broker down")}
	svc := newTestService(repo, activeSet{1: true}, ServiceDeps{Integration: hooks})

	order, err := svc.Create(context.Background(), CreateOrderInput{CustNo: 1, Lines: []LineItem{{SKU: "P1", Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.OrderNo)
}

func TestPayRemovesFromUnpaidAndRejectsSecondPayment(t *testing.T) {
	repo := newMemRepository(map[string]string{"P1": "3.00"})
	audit := &recordingAudit{}
	hooks := &recordingHooks{}
	svc := newTestService(repo, activeSet{1: true, 2: true}, ServiceDeps{Audit: audit, Integration: hooks})
	ctx := shared.ContextWithActor(context.Background(), "admin")

	_, err := svc.Create(ctx, CreateOrderInput{CustNo: 1, Lines: []LineItem{{SKU: "P1", Quantity: 1}}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateOrderInput{CustNo: 2, Lines: []LineItem{{SKU: "P1", Quantity: 2}}})
	require.NoError(t, err)

	unpaid, err := svc.ListUnpaid(ctx)
	require.NoError(t, err)
	assert.Equal(t, []UnpaidOrder{{OrderNo: 1, CustNo: 1}, {OrderNo: 2, CustNo: 2}}, unpaid)

	payment, err := svc.Pay(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Payment{OrderNo: 2, CustNo: 2}, *payment)

	unpaid, err = svc.ListUnpaid(ctx)
	require.NoError(t, err)
	assert.Equal(t, []UnpaidOrder{{OrderNo: 1, CustNo: 1}}, unpaid)

	_, err = svc.Pay(ctx, 2)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, 1, repo.payCalls)

	require.Len(t, hooks.paid, 1)
	assert.Equal(t, "6.00", hooks.paid[0].Total.StringFixed(2))
	last := audit.logs[len(audit.logs)-1]
	assert.Equal(t, "order.paid", last.Action)
	assert.Equal(t, "admin", last.Actor)
	assert.Equal(t, "2", last.EntityID)
}

func TestPayUnknownOrder(t *testing.T) {
	svc := newTestService(newMemRepository(nil), activeSet{}, ServiceDeps{})
	_, err := svc.Pay(context.Background(), 42)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSummaryRequiresActiveCustomer(t *testing.T) {
	svc := newTestService(newMemRepository(nil), activeSet{3: false}, ServiceDeps{})
	_, err := svc.CustomerSummary(context.Background(), 3)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSummaryEmptyIsNotNil(t *testing.T) {
	svc := newTestService(newMemRepository(nil), activeSet{3: true}, ServiceDeps{})
	list, err := svc.CustomerSummary(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
