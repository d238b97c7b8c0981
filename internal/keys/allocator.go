// Package keys hands out the next integer identifier for customers and orders.
package keys

import (
	"context"
	"fmt"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/db"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// Kind names an id sequence.
type Kind string

const (
	Customer Kind = "customer"
	Order    Kind = "order"
)

// The SQL is fixed per kind so nothing caller-supplied is ever spliced into a statement.
var maxQueries = map[Kind]string{
	Customer: `SELECT COALESCE(MAX(cust_no), 0) + 1 FROM customer`,
	Order:    `SELECT COALESCE(MAX(order_no), 0) + 1 FROM orders`,
}

// Allocator computes MAX+1 under a per-kind advisory transaction lock.
type Allocator struct{}

// NewAllocator returns an Allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next free id of kind. q must be a read-committed transaction: the lock
// is held until it ends, so a concurrent allocator blocks until this caller's insert is
// committed, and its MAX query, which runs after the lock is granted, sees that insert.
func (a *Allocator) Next(ctx context.Context, q db.Querier, kind Kind) (int64, error) {
	query, ok := maxQueries[kind]
	if !ok {
		return 0, fmt.Errorf("keys: unknown kind %q", kind)
	}
	if err := db.LockXact(ctx, q, LockKey(kind)); err != nil {
		return 0, err
	}
	var next int64
	if err := q.QueryRow(ctx, query).Scan(&next); err != nil {
		return 0, shared.StoreErr("allocate "+string(kind)+" id", err)
	}
	return next, nil
}

// LockKey is the advisory lock guarding kind.
func LockKey(kind Kind) int64 {
	return shared.AdvisoryLockKey("keys:" + string(kind))
}
