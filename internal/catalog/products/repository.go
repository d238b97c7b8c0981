package products

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/db"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// Repository exposes product persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, sku string) (*Product, error)
}

// TxRepository exposes the statements that must share a transaction.
type TxRepository interface {
	Insert(ctx context.Context, p Product) error
	UpdatePriceDescription(ctx context.Context, sku string, price decimal.Decimal, description *string) error
	DetachSuppliers(ctx context.Context, sku string) (int64, error)
	DeleteOrderLines(ctx context.Context, sku string) (int64, error)
	Delete(ctx context.Context, sku string) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const productColumns = `sku, name, description, price::text, ean`

// List returns every product ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM product ORDER BY name, sku`)
	if err != nil {
		return nil, shared.StoreErr("list products", err)
	}
	out, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, shared.StoreErr("list products", err)
	}
	return out, nil
}

// Get loads one product.
func (r *PGRepository) Get(ctx context.Context, sku string) (*Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM product WHERE sku = $1`, sku)
	if err != nil {
		return nil, shared.StoreErr("get product", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return nil, shared.StoreErr("get product", err)
	}
	return &p, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, p Product) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO product (sku, name, description, price, ean)
		VALUES ($1, $2, $3, $4::numeric, $5)`,
		p.SKU, p.Name, p.Description, p.Price.StringFixed(2), p.EAN)
	return shared.StoreErr("insert product", err)
}

func (r *txRepository) UpdatePriceDescription(ctx context.Context, sku string, price decimal.Decimal, description *string) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE product SET price = $2::numeric, description = $3
		WHERE sku = $1`,
		sku, price.StringFixed(2), description)
	if err != nil {
		return shared.StoreErr("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.StoreErr("update product", pgx.ErrNoRows)
	}
	return nil
}

func (r *txRepository) DetachSuppliers(ctx context.Context, sku string) (int64, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE supplier SET sku = NULL WHERE sku = $1`, sku)
	if err != nil {
		return 0, shared.StoreErr("detach suppliers", err)
	}
	return tag.RowsAffected(), nil
}

func (r *txRepository) DeleteOrderLines(ctx context.Context, sku string) (int64, error) {
	tag, err := r.tx.Exec(ctx, `DELETE FROM contains WHERE sku = $1`, sku)
	if err != nil {
		return 0, shared.StoreErr("delete order lines", err)
	}
	return tag.RowsAffected(), nil
}

func (r *txRepository) Delete(ctx context.Context, sku string) (int64, error) {
	tag, err := r.tx.Exec(ctx, `DELETE FROM product WHERE sku = $1`, sku)
	if err != nil {
		return 0, shared.StoreErr("delete product", err)
	}
	return tag.RowsAffected(), nil
}

func scanProduct(row pgx.CollectableRow) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.SKU, &p.Name, &p.Description, &price, &p.EAN); err != nil {
		return Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, err
	}
	p.Price = d
	return p, nil
}

var _ Repository = (*PGRepository)(nil)
