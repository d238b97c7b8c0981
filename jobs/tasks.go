package jobs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueMail carries customer-facing e-mail.
	QueueMail = "mail"

	// TaskOrderReceipt mails the order confirmation to the customer.
	TaskOrderReceipt = "mail:order_receipt"
	// TaskPaymentReceipt mails the payment confirmation to the customer.
	TaskPaymentReceipt = "mail:payment_receipt"
	// TaskIdempotencyCleanup purges old idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// ReceiptPayload identifies the order a receipt is about.
type ReceiptPayload struct {
	OrderNo int64 `json:"order_no"`
}

// CleanupPayload configures the idempotency cleanup run.
type CleanupPayload struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// Retention returns the configured retention, defaulting to 24h.
func (p CleanupPayload) Retention() time.Duration {
	if p.RetentionSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(p.RetentionSeconds) * time.Second
}

// NewOrderReceiptTask builds the order receipt task.
func NewOrderReceiptTask(orderNo int64) (*asynq.Task, error) {
	return newReceiptTask(TaskOrderReceipt, orderNo)
}

// NewPaymentReceiptTask builds the payment receipt task.
func NewPaymentReceiptTask(orderNo int64) (*asynq.Task, error) {
	return newReceiptTask(TaskPaymentReceipt, orderNo)
}

func newReceiptTask(taskType string, orderNo int64) (*asynq.Task, error) {
	if orderNo <= 0 {
		return nil, fmt.Errorf("%s: order number required", taskType)
	}
	data, err := json.Marshal(ReceiptPayload{OrderNo: orderNo})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data, asynq.Queue(QueueMail), asynq.MaxRetry(5)), nil
}

// NewIdempotencyCleanupTask builds the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.Queue(QueueDefault)), nil
}

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}
