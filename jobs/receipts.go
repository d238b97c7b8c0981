package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/HenriqueProj/Web-App-BD/internal/jobs"
	"github.com/HenriqueProj/Web-App-BD/internal/orders"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReceiptSource loads what a receipt mail shows.
type ReceiptSource interface {
	Receipt(ctx context.Context, orderNo int64) (*orders.Receipt, error)
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`Hello {{.CustomerName}},

{{if .Paid}}We received the payment of order {{.OrderNo}}.{{else}}Thank you for order {{.OrderNo}}, placed on {{.Date.Format "2006-01-02"}}.{{end}}

{{range .Lines}}  {{.Quantity}} x {{.Name}} ({{.SKU}}) at {{.UnitPrice.StringFixed 2}}
{{end}}
Total: {{.Total.StringFixed 2}}
`))

// ReceiptJob mails order and payment receipts.
type ReceiptJob struct {
	Receipts ReceiptSource
	Mailer   Mailer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewReceiptJob wires dependencies for the receipt handlers.
func NewReceiptJob(receipts ReceiptSource, mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReceiptJob {
	return &ReceiptJob{Receipts: receipts, Mailer: mailer, Logger: logger, Metrics: metrics}
}

// HandleOrderReceipt processes TaskOrderReceipt tasks.
func (j *ReceiptJob) HandleOrderReceipt(ctx context.Context, t *asynq.Task) error {
	return j.handle(ctx, t, TaskOrderReceipt, "Your order %d")
}

// HandlePaymentReceipt processes TaskPaymentReceipt tasks.
func (j *ReceiptJob) HandlePaymentReceipt(ctx context.Context, t *asynq.Task) error {
	return j.handle(ctx, t, TaskPaymentReceipt, "Payment received for order %d")
}

func (j *ReceiptJob) handle(ctx context.Context, t *asynq.Task, job, subject string) (resultErr error) {
	if j == nil || j.Receipts == nil || j.Mailer == nil {
		return errors.New("receipt job: handler not configured")
	}
	var payload ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.OrderNo <= 0 {
		return fmt.Errorf("receipt payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(job)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	logger := j.logger().With(slog.String("job", job), slog.Int64("order_no", payload.OrderNo))

	receipt, err := j.Receipts.Receipt(ctx, payload.OrderNo)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("order vanished before receipt was sent")
			return fmt.Errorf("order %d: %w", payload.OrderNo, asynq.SkipRetry)
		}
		return err
	}
	if job == TaskOrderReceipt {
		// A payment may land before the confirmation goes out; the order mail still
		// describes the order itself.
		receipt.Paid = false
	}
	if !deliverable(receipt.CustomerEmail) {
		logger.Info("customer has no deliverable address, receipt skipped")
		return nil
	}

	var body bytes.Buffer
	if err := receiptTemplate.Execute(&body, receipt); err != nil {
		return fmt.Errorf("render receipt: %w", asynq.SkipRetry)
	}
	msg := Message{To: receipt.CustomerEmail, Subject: fmt.Sprintf(subject, receipt.OrderNo), Body: body.String()}
	if err := j.Mailer.Send(ctx, msg); err != nil {
		logger.Error("send receipt", slog.Any("error", err))
		return err
	}
	j.metrics().MailSent(job)
	logger.Info("receipt sent")
	return nil
}

// deliverable rejects the masked addresses left behind by anonymization.
func deliverable(email string) bool {
	return strings.Contains(email, "@")
}

func (j *ReceiptJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReceiptJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
