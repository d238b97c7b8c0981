package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Operator, error)
	CreateSession(ctx context.Context, id string, operatorID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername fetches an operator by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, is_active, created_at
		FROM operator WHERE username = $1`, username).
		Scan(&op.ID, &op.Username, &op.PasswordHash, &op.IsActive, &op.CreatedAt)
	if err != nil {
		return nil, shared.StoreErr("find operator", err)
	}
	return &op, nil
}

// CreateSession records a login session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, operatorID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO operator_session (id, operator_id, created_at, expires_at, ip, ua)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (id) DO UPDATE SET operator_id = EXCLUDED.operator_id, expires_at = EXCLUDED.expires_at`,
		id, operatorID, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	return shared.StoreErr("create operator session", err)
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM operator_session WHERE id = $1`, id)
	return shared.StoreErr("delete operator session", err)
}

var _ Repository = (*PGRepository)(nil)
