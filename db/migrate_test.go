package db

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWithMigrations(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"schema_migrations", "macros"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s should exist", table)
	}

	versions, err := Applied(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"000", "001"}, versions)
}

func TestMigrationsAreOrdered(t *testing.T) {
	all, err := migrations()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, migration{Version: "000", File: "000_create_schema_migrations.sql"}, all[0])
	assert.Equal(t, migration{Version: "001", File: "001_create_macros.sql"}, all[1])
}

func TestAppliedOnEmptyDatabase(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "empty.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	versions, err := Applied(db)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestMigrate(t *testing.T) {
	t.Run("is idempotent", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, Migrate(db, nil))
		require.NoError(t, Migrate(db, nil), "running migrations twice should be safe")

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("closed database", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		db.Close()

		err = Migrate(db, nil)
		require.Error(t, err)
		assert.Contains(t, fmt.Sprintf("%+v", err), "migrate.go")
	})
}
