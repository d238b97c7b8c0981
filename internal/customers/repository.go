package customers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HenriqueProj/Web-App-BD/internal/keys"
	"github.com/HenriqueProj/Web-App-BD/internal/platform/db"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// Repository exposes customer persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListActive(ctx context.Context) ([]Customer, error)
	IsActive(ctx context.Context, custNo int64) (bool, error)
}

// TxRepository exposes the statements that must share a transaction.
type TxRepository interface {
	NextCustNo(ctx context.Context) (int64, error)
	Insert(ctx context.Context, c Customer) error
	LockMasks(ctx context.Context) error
	MaxMaskCounters(ctx context.Context) (name int64, email int64, err error)
	Anonymize(ctx context.Context, custNo int64, name, email string) (*Customer, error)
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

const activeFilter = `name NOT LIKE 'NAME%' AND email NOT LIKE 'X%'`

// ListActive returns customers that were never anonymized, ordered by name.
func (r *PGRepository) ListActive(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cust_no, name, email, phone, address
		FROM customer
		WHERE `+activeFilter+`
		ORDER BY name, cust_no`)
	if err != nil {
		return nil, shared.StoreErr("list customers", err)
	}
	out, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return nil, shared.StoreErr("list customers", err)
	}
	return out, nil
}

// IsActive reports whether custNo exists and was never anonymized.
func (r *PGRepository) IsActive(ctx context.Context, custNo int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM customer WHERE cust_no = $1 AND `+activeFilter+`)`, custNo).Scan(&ok)
	if err != nil {
		return false, shared.StoreErr("check customer", err)
	}
	return ok, nil
}

type txRepository struct {
	tx    pgx.Tx
	alloc *keys.Allocator
}

func (r *txRepository) NextCustNo(ctx context.Context) (int64, error) {
	return r.alloc.Next(ctx, r.tx, keys.Customer)
}

func (r *txRepository) Insert(ctx context.Context, c Customer) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO customer (cust_no, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)`,
		c.CustNo, c.Name, c.Email, c.Phone, c.Address)
	return shared.StoreErr("insert customer", err)
}

func (r *txRepository) LockMasks(ctx context.Context) error {
	return db.LockXact(ctx, r.tx, shared.AdvisoryLockKey("customers:masks"))
}

func (r *txRepository) MaxMaskCounters(ctx context.Context) (int64, int64, error) {
	var name, email int64
	err := r.tx.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT MAX(SUBSTRING(name FROM 5)::BIGINT) FROM customer WHERE name ~ '^NAME[0-9]{10}$'), 0),
			COALESCE((SELECT MAX(SUBSTRING(email FROM 2)::BIGINT) FROM customer WHERE email ~ '^X[0-9]{6,18}$'), 0)`,
	).Scan(&name, &email)
	if err != nil {
		return 0, 0, shared.StoreErr("read mask counters", err)
	}
	return name, email, nil
}

func (r *txRepository) Anonymize(ctx context.Context, custNo int64, name, email string) (*Customer, error) {
	rows, err := r.tx.Query(ctx, `
		UPDATE customer
		SET name = $2, email = $3, phone = NULL, address = NULL
		WHERE cust_no = $1
		RETURNING cust_no, name, email, phone, address`,
		custNo, name, email)
	if err != nil {
		return nil, shared.StoreErr("anonymize customer", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		return nil, shared.StoreErr("anonymize customer", err)
	}
	return &c, nil
}

func scanCustomer(row pgx.CollectableRow) (Customer, error) {
	var c Customer
	err := row.Scan(&c.CustNo, &c.Name, &c.Email, &c.Phone, &c.Address)
	return c, err
}

var _ Repository = (*PGRepository)(nil)
