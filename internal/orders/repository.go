package orders

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/HenriqueProj/Web-App-BD/internal/keys"
	"github.com/HenriqueProj/Web-App-BD/internal/platform/db"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// Repository exposes order persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListUnpaid(ctx context.Context) ([]UnpaidOrder, error)
	CustomerSummary(ctx context.Context, custNo int64) ([]Summary, error)
	Receipt(ctx context.Context, orderNo int64) (*Receipt, error)
}

// TxRepository exposes the statements that must share a transaction.
type TxRepository interface {
	NextOrderNo(ctx context.Context) (int64, error)
	InsertOrder(ctx context.Context, order Order) error
	InsertLine(ctx context.Context, orderNo int64, line LineItem) error
	OrderTotal(ctx context.Context, orderNo int64) (decimal.Decimal, error)
	LockOrder(ctx context.Context, orderNo int64) (Payment, error)
	IsPaid(ctx context.Context, orderNo int64) (bool, error)
	InsertPayment(ctx context.Context, p Payment) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool  *pgxpool.Pool
	alloc *keys.Allocator
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool, alloc *keys.Allocator) *PGRepository {
	return &PGRepository{pool: pool, alloc: alloc}
}

// WithTx runs fn inside a read-committed transaction so that reads issued after an
// advisory lock see every row committed by the previous lock holder.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxLevel(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, alloc: r.alloc})
	})
}

// ListUnpaid returns orders without a payment, by order number.
func (r *PGRepository) ListUnpaid(ctx context.Context) ([]UnpaidOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.order_no, o.cust_no
		FROM orders o
		WHERE NOT EXISTS (SELECT 1 FROM pay p WHERE p.order_no = o.order_no)
		ORDER BY o.order_no`)
	if err != nil {
		return nil, shared.StoreErr("list unpaid orders", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UnpaidOrder, error) {
		var o UnpaidOrder
		err := row.Scan(&o.OrderNo, &o.CustNo)
		return o, err
	})
	if err != nil {
		return nil, shared.StoreErr("list unpaid orders", err)
	}
	return out, nil
}

// CustomerSummary totals the unpaid orders of custNo. Orders whose every line was
// removed along with its product have nothing to total and are left out.
func (r *PGRepository) CustomerSummary(ctx context.Context, custNo int64) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.order_no, o.cust_no, SUM(c.qty * p.price)::text, SUM(c.qty)
		FROM orders o
		JOIN contains c USING (order_no)
		JOIN product p USING (sku)
		WHERE o.cust_no = $1
		  AND NOT EXISTS (SELECT 1 FROM pay WHERE pay.order_no = o.order_no)
		GROUP BY o.order_no, o.cust_no
		ORDER BY o.order_no`, custNo)
	if err != nil {
		return nil, shared.StoreErr("summarize orders", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var (
			s     Summary
			total string
		)
		if err := row.Scan(&s.OrderNo, &s.CustNo, &total, &s.TotalQuantity); err != nil {
			return Summary{}, err
		}
		d, err := decimal.NewFromString(total)
		s.TotalValue = d
		return s, err
	})
	if err != nil {
		return nil, shared.StoreErr("summarize orders", err)
	}
	return out, nil
}

// Receipt loads an order with its customer and priced lines.
func (r *PGRepository) Receipt(ctx context.Context, orderNo int64) (*Receipt, error) {
	var rec Receipt
	err := r.pool.QueryRow(ctx, `
		SELECT o.order_no, o.cust_no, cu.name, cu.email, o.date,
		       EXISTS (SELECT 1 FROM pay WHERE pay.order_no = o.order_no)
		FROM orders o
		JOIN customer cu USING (cust_no)
		WHERE o.order_no = $1`, orderNo).
		Scan(&rec.OrderNo, &rec.CustNo, &rec.CustomerName, &rec.CustomerEmail, &rec.Date, &rec.Paid)
	if err != nil {
		return nil, shared.StoreErr("load receipt", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.sku, p.name, c.qty, p.price::text
		FROM contains c
		JOIN product p USING (sku)
		WHERE c.order_no = $1
		ORDER BY c.sku`, orderNo)
	if err != nil {
		return nil, shared.StoreErr("load receipt lines", err)
	}
	rec.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ReceiptLine, error) {
		var (
			l     ReceiptLine
			price string
		)
		if err := row.Scan(&l.SKU, &l.Name, &l.Quantity, &price); err != nil {
			return ReceiptLine{}, err
		}
		d, err := decimal.NewFromString(price)
		l.UnitPrice = d
		return l, err
	})
	if err != nil {
		return nil, shared.StoreErr("load receipt lines", err)
	}
	rec.Total = decimal.Zero
	for _, l := range rec.Lines {
		rec.Total = rec.Total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return &rec, nil
}

type txRepository struct {
	tx    pgx.Tx
	alloc *keys.Allocator
}

func (r *txRepository) NextOrderNo(ctx context.Context) (int64, error) {
	return r.alloc.Next(ctx, r.tx, keys.Order)
}

func (r *txRepository) InsertOrder(ctx context.Context, order Order) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO orders (order_no, cust_no, date) VALUES ($1, $2, $3)`,
		order.OrderNo, order.CustNo, dateOnly(order.Date))
	return shared.StoreErr("insert order", err)
}

func (r *txRepository) InsertLine(ctx context.Context, orderNo int64, line LineItem) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO contains (order_no, sku, qty) VALUES ($1, $2, $3)`,
		orderNo, line.SKU, line.Quantity)
	return shared.StoreErr("insert order line", err)
}

func (r *txRepository) OrderTotal(ctx context.Context, orderNo int64) (decimal.Decimal, error) {
	var total string
	err := r.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(c.qty * p.price), 0)::text
		FROM contains c JOIN product p USING (sku)
		WHERE c.order_no = $1`, orderNo).Scan(&total)
	if err != nil {
		return decimal.Zero, shared.StoreErr("order total", err)
	}
	return decimal.NewFromString(total)
}

func (r *txRepository) LockOrder(ctx context.Context, orderNo int64) (Payment, error) {
	var p Payment
	err := r.tx.QueryRow(ctx, `SELECT order_no, cust_no FROM orders WHERE order_no = $1 FOR UPDATE`, orderNo).
		Scan(&p.OrderNo, &p.CustNo)
	if err != nil {
		return Payment{}, shared.StoreErr("lock order", err)
	}
	return p, nil
}

func (r *txRepository) IsPaid(ctx context.Context, orderNo int64) (bool, error) {
	var paid bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pay WHERE order_no = $1)`, orderNo).Scan(&paid)
	if err != nil {
		return false, shared.StoreErr("check payment", err)
	}
	return paid, nil
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO pay (order_no, cust_no) VALUES ($1, $2)`, p.OrderNo, p.CustNo)
	return shared.StoreErr("insert payment", err)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ Repository = (*PGRepository)(nil)
