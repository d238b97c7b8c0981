package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	migrationsGlob    = "migrations/*.sql"
	migrationLockKey  = int64(7340016)
	migrationTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

var (
	//go:embed migrations/*.sql
	migrationsFS embed.FS

	migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)
)

// Migration is one versioned schema step with its rollback.
type Migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// Migrator applies the embedded schema migrations.
type Migrator struct {
	pool       *pgxpool.Pool
	migrations []Migration
}

// NewMigrator loads the embedded migrations.
func NewMigrator(pool *pgxpool.Pool) (*Migrator, error) {
	migrations, err := LoadMigrations(migrationsFS)
	if err != nil {
		return nil, err
	}
	return &Migrator{pool: pool, migrations: migrations}, nil
}

// Up applies pending migrations. steps=0 applies all of them.
func (m *Migrator) Up(ctx context.Context, steps int) error {
	return m.run(ctx, func(conn *pgxpool.Conn) error {
		applied, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		done := 0
		for _, mig := range m.migrations {
			if applied[mig.Version] {
				continue
			}
			if err := applyStep(ctx, conn, mig.UpSQL,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, NOW())`,
				mig.Version, mig.Name); err != nil {
				return fmt.Errorf("up migration %d_%s: %w", mig.Version, mig.Name, err)
			}
			done++
			if steps > 0 && done >= steps {
				break
			}
		}
		return nil
	})
}

// Down rolls back the latest migrations. steps<=0 rolls back one.
func (m *Migrator) Down(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	byVersion := make(map[int64]Migration, len(m.migrations))
	for _, mig := range m.migrations {
		byVersion[mig.Version] = mig
	}
	return m.run(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT $1`, steps)
		if err != nil {
			return fmt.Errorf("query applied migrations: %w", err)
		}
		versions, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("scan applied migrations: %w", err)
		}
		for _, version := range versions {
			mig, ok := byVersion[version]
			if !ok {
				return fmt.Errorf("cannot rollback unknown migration version %d", version)
			}
			if err := applyStep(ctx, conn, mig.DownSQL,
				`DELETE FROM schema_migrations WHERE version = $1 AND name = $2`,
				mig.Version, mig.Name); err != nil {
				return fmt.Errorf("down migration %d_%s: %w", mig.Version, mig.Name, err)
			}
		}
		return nil
	})
}

func (m *Migrator) run(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	if m == nil || m.pool == nil {
		return errors.New("platform/db: migrator not initialised")
	}
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Release()

	lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := conn.Exec(lockCtx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	if _, err := conn.Exec(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	return fn(conn)
}

func applyStep(ctx context.Context, conn *pgxpool.Conn, body, record string, version int64, name string) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, body); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, record, version, name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func appliedVersions(ctx context.Context, conn *pgxpool.Conn) (map[int64]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan applied migrations: %w", err)
	}
	result := make(map[int64]bool, len(versions))
	for _, v := range versions {
		result[v] = true
	}
	return result, nil
}

// LoadMigrations parses NNNN_name.{up,down}.sql pairs from fsys, ordered by version.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	files, err := fs.Glob(fsys, migrationsGlob)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no migration files found")
	}

	byVersion := make(map[int64]*Migration)
	for _, file := range files {
		base := path.Base(file)
		matches := migrationFilePattern.FindStringSubmatch(base)
		if len(matches) != 4 {
			return nil, fmt.Errorf("invalid migration file name: %s", base)
		}
		version, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", base, err)
		}
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration file %s: %w", file, err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", base)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: matches[2]}
			byVersion[version] = mig
		} else if mig.Name != matches[2] {
			return nil, fmt.Errorf("migration name mismatch for version %d: %s vs %s", version, mig.Name, matches[2])
		}

		target := &mig.UpSQL
		if matches[3] == "down" {
			target = &mig.DownSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", matches[3], version)
		}
		*target = body
	}

	out := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.UpSQL == "" || mig.DownSQL == "" {
			return nil, fmt.Errorf("migration %d_%s must have both up and down files", mig.Version, mig.Name)
		}
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
