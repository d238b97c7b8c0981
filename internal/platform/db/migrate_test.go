package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedMigrations(t *testing.T) {
	migrations, err := LoadMigrations(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, int64(1), migrations[0].Version)
	assert.Equal(t, "init", migrations[0].Name)
	assert.Contains(t, migrations[0].UpSQL, "CREATE TABLE pay")
	assert.Contains(t, migrations[0].DownSQL, "DROP TABLE IF EXISTS product")
}

func TestLoadMigrationsOrdersAndValidates(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_more.up.sql":   {Data: []byte("SELECT 2")},
		"migrations/0002_more.down.sql": {Data: []byte("SELECT -2")},
		"migrations/0001_base.up.sql":   {Data: []byte("SELECT 1")},
		"migrations/0001_base.down.sql": {Data: []byte("SELECT -1")},
	}
	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "base", migrations[0].Name)
	assert.Equal(t, "more", migrations[1].Name)

	_, err = LoadMigrations(fstest.MapFS{
		"migrations/0001_base.up.sql": {Data: []byte("SELECT 1")},
	})
	assert.ErrorContains(t, err, "must have both up and down")

	_, err = LoadMigrations(fstest.MapFS{
		"migrations/1-bad.up.sql": {Data: []byte("SELECT 1")},
	})
	assert.ErrorContains(t, err, "invalid migration file name")

	_, err = LoadMigrations(fstest.MapFS{
		"migrations/0001_base.up.sql":   {Data: []byte("  ")},
		"migrations/0001_base.down.sql": {Data: []byte("SELECT -1")},
	})
	assert.ErrorContains(t, err, "empty")
}
