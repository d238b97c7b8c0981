// Package pgtest gives repository tests a migrated PostgreSQL schema of their own.
package pgtest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/db"
)

// DSNEnv names the connection string the tests run against.
const DSNEnv = "PG_DSN"

// Open connects to PG_DSN, creates a throwaway schema, applies the migrations into it and
// drops it when the test ends. Tests are skipped when PG_DSN is unset.
func Open(t testing.TB) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skip(DSNEnv + " not set; skipping PostgreSQL repository test")
	}
	ctx := context.Background()

	admin, err := db.New(ctx, dsn)
	require.NoError(t, err)
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)

	config, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	config.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		admin.Close()
	})

	migrator, err := db.NewMigrator(pool)
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx, 0))
	return pool
}
