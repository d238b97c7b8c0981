package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestStoreErrClassification(t *testing.T) {
	assert.NoError(t, StoreErr("noop", nil))

	err := StoreErr("get product", pgx.ErrNoRows)
	assert.ErrorIs(t, err, ErrNotFound)

	err = StoreErr("insert customer", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, err, ErrConflict)

	err = StoreErr("insert contains", &pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("connection reset")
	err = StoreErr("list orders", boom)
	var storeErr *StoreError
	assert.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "list orders", storeErr.Op)
	assert.ErrorIs(t, err, boom)
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("add customer: %w", NewValidationError("phone", "Phone number must have 9 numeric digits"))
	assert.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "phone", vErr.Field)
	assert.Equal(t, "Phone number must have 9 numeric digits", vErr.Error())
}
