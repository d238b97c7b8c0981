package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/HenriqueProj/Web-App-BD/internal/jobs"
	"github.com/HenriqueProj/Web-App-BD/internal/orders"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubReceipts map[int64]*orders.Receipt

func (s stubReceipts) Receipt(_ context.Context, orderNo int64) (*orders.Receipt, error) {
	r, ok := s[orderNo]
	if !ok {
		return nil, fmt.Errorf("load receipt: %w", shared.ErrNotFound)
	}
	out := *r
	return &out, nil
}

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func sampleReceipt(email string) *orders.Receipt {
	return &orders.Receipt{
		OrderNo:       12,
		CustNo:        3,
		CustomerName:  "Ana",
		CustomerEmail: email,
		Date:          time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
		Lines: []orders.ReceiptLine{
			{SKU: "P1", Name: "Pen", Quantity: 2, UnitPrice: decimal.RequireFromString("5.00")},
		},
		Total: decimal.RequireFromString("10.00"),
		Paid:  true,
	}
}

func newReceiptJob(receipts stubReceipts, mailer Mailer) *ReceiptJob {
	return NewReceiptJob(receipts, mailer, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestOrderReceiptMailsCustomer(t *testing.T) {
	mailer := &recordingMailer{}
	job := newReceiptJob(stubReceipts{12: sampleReceipt("ana@example.com")}, mailer)
	task, err := NewOrderReceiptTask(12)
	require.NoError(t, err)

	require.NoError(t, job.HandleOrderReceipt(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Your order 12", msg.Subject)
	assert.Contains(t, msg.Body, "Thank you for order 12, placed on 2024-05-17.")
	assert.Contains(t, msg.Body, "2 x Pen (P1) at 5.00")
	assert.Contains(t, msg.Body, "Total: 10.00")
}

func TestPaymentReceipt(t *testing.T) {
	mailer := &recordingMailer{}
	job := newReceiptJob(stubReceipts{12: sampleReceipt("ana@example.com")}, mailer)
	task, err := NewPaymentReceiptTask(12)
	require.NoError(t, err)

	require.NoError(t, job.HandlePaymentReceipt(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "We received the payment of order 12.")
}

func TestReceiptSkipsMaskedAddress(t *testing.T) {
	mailer := &recordingMailer{}
	job := newReceiptJob(stubReceipts{12: sampleReceipt("X000001")}, mailer)
	task, _ := NewOrderReceiptTask(12)
	require.NoError(t, job.HandleOrderReceipt(context.Background(), task))
	assert.Empty(t, mailer.sent)
}

func TestReceiptMissingOrderSkipsRetry(t *testing.T) {
	job := newReceiptJob(stubReceipts{}, &recordingMailer{})
	task, _ := NewOrderReceiptTask(99)
	err := job.HandleOrderReceipt(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	bad := asynq.NewTask(TaskOrderReceipt, []byte("{"))
	assert.ErrorIs(t, job.HandleOrderReceipt(context.Background(), bad), asynq.SkipRetry)
}

func TestReceiptMailerFailureRetries(t *testing.T) {
	boom := errors.New("relay down")
	job := newReceiptJob(stubReceipts{12: sampleReceipt("ana@example.com")}, &recordingMailer{err: boom})
	task, _ := NewOrderReceiptTask(12)
	err := job.HandleOrderReceipt(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestReceiptTaskRequiresOrder(t *testing.T) {
	_, err := NewOrderReceiptTask(0)
	assert.Error(t, err)
}

type stubCleaner struct {
	retention time.Duration
	removed   int64
}

func (s *stubCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	s.retention = olderThan
	return s.removed, nil
}

func TestIdempotencyCleanup(t *testing.T) {
	store := &stubCleaner{removed: 4}
	job := NewIdempotencyCleanupJob(store, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewIdempotencyCleanupTask(2 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 2*time.Hour, store.retention)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, 24*time.Hour, store.retention)
}

func TestSMTPMailerComposesMessage(t *testing.T) {
	mailer := NewSMTPMailer("mail.local", 2525, "Back Office <shop@example.com>")
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)
	mailer.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := mailer.Send(context.Background(), Message{To: "ana@example.com", Subject: "Your order 12", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "shop@example.com", gotFrom)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)

	parsed, err := mail.ReadMessage(strings.NewReader(string(gotMsg)))
	require.NoError(t, err)
	assert.Equal(t, "Your order 12", parsed.Header.Get("Subject"))
	body, err := io.ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	assert.Error(t, mailer.Send(context.Background(), Message{To: "not an address"}))
}

type stubInspector map[string]*asynq.QueueInfo

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	info, ok := s[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func TestHealthReportsQueues(t *testing.T) {
	handler := NewHandler(stubInspector{QueueMail: {Queue: QueueMail, Pending: 3, Retry: 1}}, quietLogger())
	r := chi.NewRouter()
	r.Route("/jobs", handler.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []queueHealth{
		{Queue: QueueMail, Pending: 3, Retry: 1},
		{Queue: QueueDefault},
	}, got)
}
