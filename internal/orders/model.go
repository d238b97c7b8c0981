package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product and quantity of an order.
type LineItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"qty"`
}

// Order is a placed order with its composition.
type Order struct {
	OrderNo int64      `json:"order_no"`
	CustNo  int64      `json:"cust_no"`
	Date    time.Time  `json:"date"`
	Lines   []LineItem `json:"lines"`
}

// UnpaidOrder is an order without a payment.
type UnpaidOrder struct {
	OrderNo int64 `json:"order_no"`
	CustNo  int64 `json:"cust_no"`
}

// Summary totals one unpaid order.
type Summary struct {
	OrderNo       int64           `json:"order_no"`
	CustNo        int64           `json:"cust_no"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalQuantity int64           `json:"total_qty"`
}

// Payment records that an order was paid.
type Payment struct {
	OrderNo int64 `json:"order_no"`
	CustNo  int64 `json:"cust_no"`
}

// CreateOrderInput carries a new order. IdempotencyKey is optional; a replayed key is
// rejected instead of creating a second order.
type CreateOrderInput struct {
	CustNo         int64
	Lines          []LineItem
	IdempotencyKey string
}

// ReceiptLine is a priced order line.
type ReceiptLine struct {
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Receipt is everything needed to tell a customer about an order.
type Receipt struct {
	OrderNo       int64
	CustNo        int64
	CustomerName  string
	CustomerEmail string
	Date          time.Time
	Lines         []ReceiptLine
	Total         decimal.Decimal
	Paid          bool
}

// OrderCreatedEvent is emitted after an order commits.
type OrderCreatedEvent struct {
	OrderNo int64
	CustNo  int64
	Date    time.Time
	Lines   []LineItem
	Total   decimal.Decimal
}

// OrderPaidEvent is emitted after a payment commits.
type OrderPaidEvent struct {
	OrderNo int64
	CustNo  int64
	Total   decimal.Decimal
}
