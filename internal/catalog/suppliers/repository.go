package suppliers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/db"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// Repository exposes supplier persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Supplier, error)
}

// TxRepository exposes the statements that must share a transaction.
type TxRepository interface {
	Insert(ctx context.Context, s Supplier) error
	DeleteDeliveries(ctx context.Context, tin string) (int64, error)
	Delete(ctx context.Context, tin string) (int64, error)
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

// List returns suppliers ordered by name. Unnamed suppliers sort last.
func (r *PGRepository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tin, name, address, sku, date
		FROM supplier
		ORDER BY name NULLS LAST, tin`)
	if err != nil {
		return nil, shared.StoreErr("list suppliers", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Supplier, error) {
		var s Supplier
		err := row.Scan(&s.TIN, &s.Name, &s.Address, &s.SKU, &s.Date)
		return s, err
	})
	if err != nil {
		return nil, shared.StoreErr("list suppliers", err)
	}
	return out, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, s Supplier) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO supplier (tin, name, address, sku, date)
		VALUES ($1, $2, $3, $4, $5)`,
		s.TIN, s.Name, s.Address, s.SKU, s.Date)
	return shared.StoreErr("insert supplier", err)
}

func (r *txRepository) DeleteDeliveries(ctx context.Context, tin string) (int64, error) {
	tag, err := r.tx.Exec(ctx, `DELETE FROM delivery WHERE tin = $1`, tin)
	if err != nil {
		return 0, shared.StoreErr("delete deliveries", err)
	}
	return tag.RowsAffected(), nil
}

func (r *txRepository) Delete(ctx context.Context, tin string) (int64, error) {
	tag, err := r.tx.Exec(ctx, `DELETE FROM supplier WHERE tin = $1`, tin)
	if err != nil {
		return 0, shared.StoreErr("delete supplier", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
